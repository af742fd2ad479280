package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

func (r *AnalyticsRepository) Platform(ctx context.Context, now time.Time) (*model.PlatformAnalytics, error) {
	db := r.DB.WithContext(ctx)
	a := &model.PlatformAnalytics{}

	counts := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&model.User{}), &a.TotalUsers},
		{db.Model(&model.User{}).Where("onboarded = ?", true), &a.OnboardedUsers},
		{db.Model(&model.Content{}), &a.TotalContent},
		{db.Model(&model.ActivityLog{}).Where("completed_at >= ?", now.AddDate(0, 0, -7)), &a.ActivitiesLast7Days},
		{db.Model(&model.JournalEntry{}), &a.JournalEntries},
		{db.Model(&model.MoodLog{}), &a.MoodLogs},
		{db.Model(&model.UserBadge{}).Where("is_completed = ?", true), &a.BadgesAwarded},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return a, nil
}
