package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// RecordCompletion 在一个事务中写入完成记录并更新连续打卡状态。
// 用户行加 FOR UPDATE 锁，同一用户的并发写入被串行化。
func (r *ActivityRepository) RecordCompletion(ctx context.Context, userID, contentID uint, at time.Time, apply func(user *model.User)) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}

		log := &model.ActivityLog{UserID: userID, ContentID: contentID, CompletedAt: at}
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		apply(&user)
		return tx.Model(&user).
			Select("current_streak", "longest_streak", "last_activity_date").
			Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CompletedContentIDs 用户在 since 之后完成过的内容（去重）
func (r *ActivityRepository) CompletedContentIDs(ctx context.Context, userID uint, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.ActivityLog{}).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Distinct().
		Pluck("content_id", &ids).Error
	return ids, err
}

func (r *ActivityRepository) CountCompletions(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ActivityLog{}).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// CountMatching 统计用户完成的某类内容总数，用于计数型徽章
func (r *ActivityRepository) CountMatching(ctx context.Context, userID uint, contentType model.ContentType, category model.Category) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.ActivityLog{}).
		Joins("JOIN content ON content.id = activity_logs.content_id").
		Where("activity_logs.user_id = ?", userID)
	if contentType != "" {
		q = q.Where("content.content_type = ?", contentType)
	}
	if category != "" {
		q = q.Where("content.category = ?", category)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// PopularContent 全体用户 since 之后的完成次数排行
func (r *ActivityRepository) PopularContent(ctx context.Context, since time.Time, limit int) ([]model.ContentPopularity, error) {
	var rows []model.ContentPopularity
	err := r.DB.WithContext(ctx).Model(&model.ActivityLog{}).
		Select("content_id, COUNT(*) AS completions").
		Where("completed_at >= ?", since).
		Group("content_id").
		Order("completions DESC, content_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	err := r.DB.WithContext(ctx).
		Preload("Content").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}
