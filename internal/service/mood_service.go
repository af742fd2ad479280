package service

import (
	"context"
	"encoding/json"
	"math"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
)

type MoodStore interface {
	Create(ctx context.Context, log *model.MoodLog) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.MoodLog, error)
}

type MoodService struct {
	Moods MoodStore
	Now   func() time.Time
}

func NewMoodService(moods MoodStore) *MoodService {
	return &MoodService{Moods: moods, Now: time.Now}
}

// MoodFromRating 1..5 星评分归一化为 0..1
func MoodFromRating(rating int) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, util.ErrInvalidRating
	}
	return float64(rating) / 5, nil
}

// MoodFromWearable 手表指标加权：心率 0.2，HRV 0.3，压力 0.25，睡眠 0.15，活动量 0.1。
// 缺失的指标按常见中位值补齐。
func MoodFromWearable(m model.WearableMetrics) float64 {
	hr := valueOr(m.HeartRate, 70)
	hrv := valueOr(m.HRV, 50)
	stress := valueOr(m.StressLevel, 50)
	sleep := valueOr(m.SleepQuality, 70)
	activity := valueOr(m.ActivityLevel, 50)

	score := normalizeHeartRate(hr)*0.2 +
		math.Min(1, hrv/100)*0.3 +
		(100-stress)/100*0.25 +
		sleep/100*0.15 +
		math.Min(activity/100, 1)*0.1
	return math.Max(0, math.Min(1, score))
}

// 60-100 为理想区间
func normalizeHeartRate(hr float64) float64 {
	switch {
	case hr >= 60 && hr <= 100:
		return 1
	case hr < 60:
		return math.Max(0, 0.5+(hr-40)/40)
	default:
		return math.Max(0, 1-(hr-100)/50)
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (s *MoodService) LogRating(ctx context.Context, userID uint, rating int, note string) (*model.MoodLog, error) {
	score, err := MoodFromRating(rating)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(map[string]interface{}{"rating": rating, "note": note, "source": "manual"})
	return s.save(ctx, userID, raw, score)
}

func (s *MoodService) SyncWearable(ctx context.Context, userID uint, metrics model.WearableMetrics) (*model.MoodLog, error) {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, userID, raw, MoodFromWearable(metrics))
}

func (s *MoodService) save(ctx context.Context, userID uint, raw json.RawMessage, score float64) (*model.MoodLog, error) {
	log := &model.MoodLog{
		UserID:              userID,
		Timestamp:           s.Now(),
		RawSensorData:       raw,
		CalculatedMoodScore: &score,
	}
	if err := s.Moods.Create(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *MoodService) List(ctx context.Context, userID uint, limit, offset int) ([]model.MoodLog, error) {
	return s.Moods.ListByUser(ctx, userID, limit, offset)
}
