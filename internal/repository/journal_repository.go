package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type JournalRepository struct {
	DB *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{DB: db}
}

func (r *JournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *JournalRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *JournalRepository) FindForUser(ctx context.Context, id, userID uint) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *JournalRepository) DeleteForUser(ctx context.Context, id, userID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.JournalEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SentimentSignals 按时间升序返回已打分的日记情感值
func (r *JournalRepository) SentimentSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error) {
	var entries []model.JournalEntry
	err := r.DB.WithContext(ctx).
		Select("created_at", "sentiment_score").
		Where("user_id = ? AND created_at >= ? AND sentiment_score IS NOT NULL", userID, since).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	signals := make([]model.Signal, 0, len(entries))
	for _, e := range entries {
		signals = append(signals, model.Signal{At: e.CreatedAt, Score: *e.SentimentScore})
	}
	return signals, nil
}

func (r *JournalRepository) JournalTexts(ctx context.Context, userID uint, since time.Time) ([]string, error) {
	var texts []string
	err := r.DB.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Pluck("entry_text", &texts).Error
	return texts, err
}

// FindUnscored 待分析情感的日记，最早的优先
func (r *JournalRepository) FindUnscored(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	err := r.DB.WithContext(ctx).
		Where("sentiment_score IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *JournalRepository) UpdateSentiment(ctx context.Context, id uint, score float64) error {
	return r.DB.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("id = ?", id).
		Update("sentiment_score", score).Error
}
