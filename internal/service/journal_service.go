package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type JournalStore interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.JournalEntry, error)
	FindForUser(ctx context.Context, id, userID uint) (*model.JournalEntry, error)
	DeleteForUser(ctx context.Context, id, userID uint) error
	FindUnscored(ctx context.Context, limit int) ([]model.JournalEntry, error)
	UpdateSentiment(ctx context.Context, id uint, score float64) error
}

type SentimentAnalyzer interface {
	Enabled() bool
	AnalyzeSentiment(ctx context.Context, text string) (float64, error)
}

// 后台打分的单次超时
const sentimentTimeout = 30 * time.Second

type JournalService struct {
	Journals JournalStore
	Analyzer SentimentAnalyzer
}

func NewJournalService(journals JournalStore, analyzer SentimentAnalyzer) *JournalService {
	return &JournalService{Journals: journals, Analyzer: analyzer}
}

// Create 写入日记后异步打分，失败的条目由定时任务重试
func (s *JournalService) Create(ctx context.Context, userID uint, text string) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{UserID: userID, EntryText: strings.TrimSpace(text)}
	if err := s.Journals.Create(ctx, entry); err != nil {
		return nil, err
	}

	if s.Analyzer != nil && s.Analyzer.Enabled() {
		go func(id uint, text string) {
			bg, cancel := context.WithTimeout(context.Background(), sentimentTimeout)
			defer cancel()
			s.score(bg, id, text)
		}(entry.ID, entry.EntryText)
	}
	return entry, nil
}

func (s *JournalService) List(ctx context.Context, userID uint, limit, offset int) ([]model.JournalEntry, error) {
	return s.Journals.ListByUser(ctx, userID, limit, offset)
}

func (s *JournalService) Get(ctx context.Context, userID, id uint) (*model.JournalEntry, error) {
	return s.Journals.FindForUser(ctx, id, userID)
}

func (s *JournalService) Delete(ctx context.Context, userID, id uint) error {
	return s.Journals.DeleteForUser(ctx, id, userID)
}

// ScorePending 给未打分的日记补分，返回成功条数
func (s *JournalService) ScorePending(ctx context.Context, batch int) (int, error) {
	if s.Analyzer == nil || !s.Analyzer.Enabled() {
		return 0, nil
	}
	entries, err := s.Journals.FindUnscored(ctx, batch)
	if err != nil {
		return 0, err
	}
	scored := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if s.score(ctx, e.ID, e.EntryText) {
			scored++
		}
	}
	return scored, nil
}

func (s *JournalService) score(ctx context.Context, id uint, text string) bool {
	score, err := s.Analyzer.AnalyzeSentiment(ctx, text)
	if err != nil {
		monitoring.SentimentJobCounter.WithLabelValues("failed").Inc()
		if !errors.Is(err, util.ErrSentimentDisabled) {
			logger.Log.Warn("Sentiment analysis failed", zap.Uint("journal_id", id), zap.Error(err))
		}
		return false
	}
	if err := s.Journals.UpdateSentiment(ctx, id, score); err != nil {
		monitoring.SentimentJobCounter.WithLabelValues("failed").Inc()
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("Failed to store sentiment", zap.Uint("journal_id", id), zap.Error(err))
		}
		return false
	}
	monitoring.SentimentJobCounter.WithLabelValues("scored").Inc()
	return true
}
