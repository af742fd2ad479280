package repository

import (
	"context"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"

	"gorm.io/gorm"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) filtered(ctx context.Context, f model.ContentFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&model.Content{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if len(f.ContentTypes) > 0 {
		q = q.Where("content_type IN ?", f.ContentTypes)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", f.ExcludeIDs)
	}
	if f.Search != "" {
		like := util.ContainsPattern(f.Search)
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	return q
}

// FindContent 按条件查询目录，结果按 id 升序保证稳定
func (r *ContentRepository) FindContent(ctx context.Context, f model.ContentFilter) ([]model.Content, error) {
	var items []model.Content
	q := r.filtered(ctx, f).Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *ContentRepository) Count(ctx context.Context, f model.ContentFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

// FindByIDs 返回顺序与 ids 一致，缺失的 id 被跳过
func (r *ContentRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Content, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.Content
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Content, len(items))
	for _, c := range items {
		byID[c.ID] = c
	}
	ordered := make([]model.Content, 0, len(items))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (r *ContentRepository) FindByID(ctx context.Context, id uint) (*model.Content, error) {
	var c model.Content
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepository) Create(ctx context.Context, c *model.Content) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *ContentRepository) Update(ctx context.Context, c *model.Content) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *ContentRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&model.Content{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
