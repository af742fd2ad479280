package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type MoodRepository struct {
	DB *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{DB: db}
}

func (r *MoodRepository) Create(ctx context.Context, log *model.MoodLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *MoodRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.MoodLog, error) {
	var logs []model.MoodLog
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}

// MoodSignals 按时间升序返回已计算的心情分
func (r *MoodRepository) MoodSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error) {
	var logs []model.MoodLog
	err := r.DB.WithContext(ctx).
		Select("timestamp", "calculated_mood_score").
		Where("user_id = ? AND timestamp >= ? AND calculated_mood_score IS NOT NULL", userID, since).
		Order("timestamp ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	signals := make([]model.Signal, 0, len(logs))
	for _, l := range logs {
		signals = append(signals, model.Signal{At: l.Timestamp, Score: *l.CalculatedMoodScore})
	}
	return signals, nil
}
