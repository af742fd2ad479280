package service

import (
	"context"
	"time"
	"uplook_backend/internal/model"
)

type PlatformCounter interface {
	Platform(ctx context.Context, now time.Time) (*model.PlatformAnalytics, error)
}

// AnalyticsService 管理后台概览数据
type AnalyticsService struct {
	Counter PlatformCounter
	Now     func() time.Time
}

func NewAnalyticsService(counter PlatformCounter) *AnalyticsService {
	return &AnalyticsService{Counter: counter, Now: time.Now}
}

func (s *AnalyticsService) Platform(ctx context.Context) (*model.PlatformAnalytics, error) {
	return s.Counter.Platform(ctx, s.Now())
}
