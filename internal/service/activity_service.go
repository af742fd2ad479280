package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionRecorder 原子地写入完成记录并更新用户连续打卡状态
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, userID, contentID uint, at time.Time, apply func(user *model.User)) (*model.User, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error)
}

type ContentLookup interface {
	FindByID(ctx context.Context, id uint) (*model.Content, error)
}

type ActivityService struct {
	Recorder CompletionRecorder
	Catalog  ContentLookup
	Streaks  *StreakService
	Badges   *BadgeService
	Now      func() time.Time
}

func NewActivityService(recorder CompletionRecorder, catalog ContentLookup, streaks *StreakService, badges *BadgeService) *ActivityService {
	return &ActivityService{Recorder: recorder, Catalog: catalog, Streaks: streaks, Badges: badges, Now: time.Now}
}

// MarkCompleted 记录一次内容完成。写入失败时返回 Success=false 的结构化结果，由调用方决定是否重试。
func (s *ActivityService) MarkCompleted(ctx context.Context, userID, contentID uint) model.CompletionResult {
	content, err := s.Catalog.FindByID(ctx, contentID)
	if err != nil {
		monitoring.ActivityCounter.WithLabelValues("rejected").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.CompletionResult{Message: util.ErrContentNotFound.Error()}
		}
		return model.CompletionResult{Message: fmt.Sprintf("Failed to log activity: %v", err)}
	}

	now := s.Now()
	// 先把已中断的连续天数落库，再在事务里累加
	if s.Streaks != nil {
		if _, err := s.Streaks.ApplyStreakBreak(ctx, userID, now); err != nil {
			logger.Ctx(ctx).Warn("Failed to apply streak break", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	user, err := s.Recorder.RecordCompletion(ctx, userID, contentID, now, func(u *model.User) {
		u.SetStreak(ApplyActivity(u.Streak(), now))
	})
	if err != nil {
		monitoring.ActivityCounter.WithLabelValues("failed").Inc()
		logger.Ctx(ctx).Error("Failed to log activity",
			zap.Uint("user_id", userID),
			zap.Uint("content_id", contentID),
			zap.Error(err))
		return model.CompletionResult{Message: fmt.Sprintf("Failed to log activity: %v", err)}
	}
	monitoring.ActivityCounter.WithLabelValues("logged").Inc()

	result := model.CompletionResult{
		Success:   true,
		Message:   "Activity logged successfully",
		Streak:    user.CurrentStreak,
		NewBadges: []model.BadgeType{},
	}

	// 完成记录已提交，徽章评估失败只记录日志
	if s.Badges != nil {
		streakBadges, err := s.Badges.EvaluateBadges(ctx, userID, user.CurrentStreak)
		if err != nil {
			logger.Ctx(ctx).Error("Streak badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		countBadges, err := s.Badges.EvaluateCountBadges(ctx, userID, *content)
		if err != nil {
			logger.Ctx(ctx).Error("Count badge evaluation failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		result.NewBadges = append(append(result.NewBadges, streakBadges...), countBadges...)
	}
	return result
}

func (s *ActivityService) ListLogs(ctx context.Context, userID uint, limit, offset int) ([]model.ActivityLog, error) {
	return s.Recorder.ListByUser(ctx, userID, limit, offset)
}
