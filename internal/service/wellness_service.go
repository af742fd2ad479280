package service

import (
	"context"
	"math"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"

	"go.uber.org/zap"
)

// 信号窗口（天）
const signalWindowDays = 7

const (
	sentimentWeight = 0.4
	moodWeight      = 0.6
	neutralSignal   = 0.5
	improvingAbove  = 60.0
)

type SentimentSource interface {
	SentimentSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error)
}

type MoodSource interface {
	MoodSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error)
}

// WellnessSnapshot 一次请求内读取的信号，排序和汇总共用
type WellnessSnapshot struct {
	Score     model.WellnessScore
	Sentiment []model.Signal
	Mood      []model.Signal
}

type WellnessService struct {
	Sentiment SentimentSource
	Mood      MoodSource
	Now       func() time.Time
}

func NewWellnessService(sentiment SentimentSource, mood MoodSource) *WellnessService {
	return &WellnessService{Sentiment: sentiment, Mood: mood, Now: time.Now}
}

// ComputeWellness 情感分量 (mean+1)/2，心情分量取均值，缺数据时都按 0.5 计
func ComputeWellness(sentiment, mood []model.Signal) model.WellnessScore {
	sc := neutralSignal
	if len(sentiment) > 0 {
		sc = (mean(sentiment) + 1) / 2
	}
	mc := neutralSignal
	if len(mood) > 0 {
		mc = mean(mood)
	}

	overall := (sc*sentimentWeight + mc*moodWeight) * 100
	trend := model.TrendNeedsAttention
	if overall > improvingAbove {
		trend = model.TrendImproving
	}
	return model.WellnessScore{
		Score:              overall,
		Trend:              trend,
		SentimentComponent: sc * 100,
		MoodComponent:      mc * 100,
		SentimentSamples:   len(sentiment),
		MoodSamples:        len(mood),
	}
}

func mean(signals []model.Signal) float64 {
	var sum float64
	for _, s := range signals {
		sum += s.Score
	}
	return sum / float64(len(signals))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// presentWellness 对外展示保留一位小数；趋势按原始值判断
func presentWellness(w model.WellnessScore) model.WellnessScore {
	w.Score = round1(w.Score)
	w.SentimentComponent = round1(w.SentimentComponent)
	w.MoodComponent = round1(w.MoodComponent)
	return w
}

// Snapshot 读取最近 7 天的信号，信号源出错时按无数据处理
func (s *WellnessService) Snapshot(ctx context.Context, userID uint, now time.Time) WellnessSnapshot {
	since := now.AddDate(0, 0, -signalWindowDays)

	sentiment, err := s.Sentiment.SentimentSignals(ctx, userID, since)
	if err != nil {
		logger.Log.Warn("sentiment signals unavailable", zap.Uint("user_id", userID), zap.Error(err))
		sentiment = nil
	}
	mood, err := s.Mood.MoodSignals(ctx, userID, since)
	if err != nil {
		logger.Log.Warn("mood signals unavailable", zap.Uint("user_id", userID), zap.Error(err))
		mood = nil
	}

	return WellnessSnapshot{
		Score:     ComputeWellness(sentiment, mood),
		Sentiment: sentiment,
		Mood:      mood,
	}
}

func (s *WellnessService) WellnessScore(ctx context.Context, userID uint) model.WellnessScore {
	return presentWellness(s.Snapshot(ctx, userID, s.Now()).Score)
}

// Insights 根据近 7 天的信号生成提示语
func (s *WellnessService) Insights(ctx context.Context, userID uint) model.WellnessInsights {
	snap := s.Snapshot(ctx, userID, s.Now())
	return model.WellnessInsights{
		Score:    presentWellness(snap.Score),
		Insights: BuildInsights(snap.Sentiment, snap.Mood),
	}
}

func BuildInsights(sentiment, mood []model.Signal) []string {
	var insights []string

	if len(sentiment) > 0 {
		switch avg := mean(sentiment); {
		case avg > 0.3:
			insights = append(insights, "Your journal entries show a positive emotional trend this week!")
		case avg < -0.3:
			insights = append(insights, "Your recent journal entries suggest some challenges. Consider focusing on stress-reduction activities.")
		default:
			insights = append(insights, "Your emotional state appears balanced based on your journal entries.")
		}
	}

	if len(mood) > 0 {
		switch avg := mean(mood); {
		case avg > 0.7:
			insights = append(insights, "Your wearable data indicates excellent overall wellness!")
		case avg < 0.4:
			insights = append(insights, "Your biometric data suggests elevated stress levels. Consider meditation or relaxation exercises.")
		default:
			insights = append(insights, "Your biometric indicators show room for improvement in stress management.")
		}
	}

	if len(insights) == 0 {
		insights = append(insights, "Keep logging your activities to get personalized insights!")
	}
	return insights
}

// SentimentTrend 最近 days 天的日记情感序列
func (s *WellnessService) SentimentTrend(ctx context.Context, userID uint, days int) ([]model.Signal, error) {
	return s.Sentiment.SentimentSignals(ctx, userID, s.Now().AddDate(0, 0, -days))
}

func (s *WellnessService) MoodTrend(ctx context.Context, userID uint, days int) ([]model.Signal, error) {
	return s.Mood.MoodSignals(ctx, userID, s.Now().AddDate(0, 0, -days))
}
