package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) ListBadges(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.WithContext(ctx).Order("requirement_value ASC, id ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) CreateBadge(ctx context.Context, b *model.Badge) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *BadgeRepository) DeleteBadge(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&model.UserBadge{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Badge{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *BadgeRepository) UserBadges(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var ubs []model.UserBadge
	err := r.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&ubs).Error
	return ubs, err
}

// CreateUserBadge 唯一索引 (user_id, badge_id) 冲突时返回 gorm.ErrDuplicatedKey
func (r *BadgeRepository) CreateUserBadge(ctx context.Context, ub *model.UserBadge) error {
	return r.DB.WithContext(ctx).Omit("Badge").Create(ub).Error
}

// CompleteUserBadge 把未完成的进度行升级为已完成，已完成的行不受影响
func (r *BadgeRepository) CompleteUserBadge(ctx context.Context, id uint, progress int, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.UserBadge{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"progress":     progress,
			"is_completed": true,
			"earned_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *BadgeRepository) UpdateProgress(ctx context.Context, id uint, progress int) error {
	return r.DB.WithContext(ctx).Model(&model.UserBadge{}).
		Where("id = ? AND is_completed = ?", id, false).
		Update("progress", progress).Error
}
