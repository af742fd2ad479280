package scheduler

import (
	"context"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const (
	sentimentBatchSize = 50
	jobTimeout         = 2 * time.Minute
)

// SentimentScorer 为尚未打分的日记补算情绪分
type SentimentScorer interface {
	ScorePending(ctx context.Context, batch int) (int, error)
}

// StreakMaintainer 把中断超过一天的连续记录清零
type StreakMaintainer interface {
	BreakLapsedStreaks(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	sentiment SentimentScorer
	streaks   StreakMaintainer
	cfg       config.JobsConfig
	now       func() time.Time
}

// New 使用本地时区，连续记录按本地日历天计算
func New(cfg config.JobsConfig, sentiment SentimentScorer, streaks StreakMaintainer) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		sentiment: sentiment,
		streaks:   streaks,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	if s.sentiment != nil && s.cfg.SentimentIntervalMinutes > 0 {
		if _, err := s.scheduler.Every(s.cfg.SentimentIntervalMinutes).Minutes().Do(s.scorePendingJournals); err != nil {
			return err
		}
	}

	if s.streaks != nil && s.cfg.StreakMaintenanceAt != "" {
		if _, err := s.scheduler.Every(1).Day().At(s.cfg.StreakMaintenanceAt).Do(s.breakLapsedStreaks); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	logger.Log.Info("Background jobs started",
		zap.Int("sentimentIntervalMinutes", s.cfg.SentimentIntervalMinutes),
		zap.String("streakMaintenanceAt", s.cfg.StreakMaintenanceAt))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) scorePendingJournals() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sentiment.ScorePending(ctx, sentimentBatchSize)
	if err != nil {
		logger.Log.Error("Sentiment job failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Log.Info("Sentiment job scored journal entries", zap.Int("count", n))
	}
}

func (s *Scheduler) breakLapsedStreaks() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.streaks.BreakLapsedStreaks(ctx, s.now())
	if err != nil {
		logger.Log.Error("Streak maintenance failed", zap.Error(err))
		return
	}
	logger.Log.Info("Streak maintenance finished", zap.Int64("reset", n))
}
