package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BadgeStore interface {
	ListBadges(ctx context.Context) ([]model.Badge, error)
	UserBadges(ctx context.Context, userID uint) ([]model.UserBadge, error)
	CreateUserBadge(ctx context.Context, ub *model.UserBadge) error
	CompleteUserBadge(ctx context.Context, id uint, progress int, at time.Time) (bool, error)
	UpdateProgress(ctx context.Context, id uint, progress int) error
	CreateBadge(ctx context.Context, b *model.Badge) error
	DeleteBadge(ctx context.Context, id uint) error
}

// CompletionCounter 统计用户完成的某类内容数量
type CompletionCounter interface {
	CountMatching(ctx context.Context, userID uint, contentType model.ContentType, category model.Category) (int64, error)
}

type BadgeService struct {
	Store   BadgeStore
	Counter CompletionCounter
	Rules   []config.CountBadgeRule
	Now     func() time.Time
}

func NewBadgeService(store BadgeStore, counter CompletionCounter, rules []config.CountBadgeRule) *BadgeService {
	return &BadgeService{Store: store, Counter: counter, Rules: rules, Now: time.Now}
}

// EvaluateBadges 根据当前连续天数发放达到门槛的连续打卡徽章，返回本次新发放的徽章。
// 已完成的徽章不会重复发放，也不会因连续中断而收回。
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID uint, currentStreak int) ([]model.BadgeType, error) {
	catalog, owned, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var awarded []model.BadgeType
	for _, badge := range catalog {
		if !badge.BadgeType.IsStreak() || currentStreak < badge.RequirementValue {
			continue
		}
		ok, err := s.award(ctx, userID, badge, owned[badge.ID], now)
		if err != nil {
			return awarded, err
		}
		if ok {
			awarded = append(awarded, badge.BadgeType)
		}
	}
	return awarded, nil
}

// EvaluateCountBadges 内容完成后推进计数型徽章的进度，达到门槛时发放
func (s *BadgeService) EvaluateCountBadges(ctx context.Context, userID uint, content model.Content) ([]model.BadgeType, error) {
	var matched []config.CountBadgeRule
	for _, rule := range s.Rules {
		if ruleMatches(rule, content) {
			matched = append(matched, rule)
		}
	}
	if len(matched) == 0 || s.Counter == nil {
		return nil, nil
	}

	catalog, owned, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType := make(map[model.BadgeType]model.Badge, len(catalog))
	for _, b := range catalog {
		byType[b.BadgeType] = b
	}

	now := s.Now()
	var awarded []model.BadgeType
	for _, rule := range matched {
		badge, ok := byType[model.BadgeType(rule.BadgeType)]
		if !ok || badge.RequirementValue <= 0 {
			continue
		}
		existing := owned[badge.ID]
		if existing != nil && existing.IsCompleted {
			continue
		}

		count, err := s.Counter.CountMatching(ctx, userID, model.ContentType(rule.ContentType), model.Category(rule.Category))
		if err != nil {
			return awarded, fmt.Errorf("count completions for %s: %w", rule.BadgeType, err)
		}

		if int(count) >= badge.RequirementValue {
			ok, err := s.award(ctx, userID, badge, existing, now)
			if err != nil {
				return awarded, err
			}
			if ok {
				awarded = append(awarded, badge.BadgeType)
			}
			continue
		}

		if err := s.recordProgress(ctx, userID, badge, existing, int(count)); err != nil {
			return awarded, err
		}
	}
	return awarded, nil
}

func ruleMatches(rule config.CountBadgeRule, c model.Content) bool {
	if rule.ContentType == "" && rule.Category == "" {
		return false
	}
	if rule.ContentType != "" && model.ContentType(rule.ContentType) != c.ContentType {
		return false
	}
	if rule.Category != "" && model.Category(rule.Category) != c.Category {
		return false
	}
	return true
}

func (s *BadgeService) load(ctx context.Context, userID uint) ([]model.Badge, map[uint]*model.UserBadge, error) {
	catalog, err := s.Store.ListBadges(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load badge catalog: %w", err)
	}
	ubs, err := s.Store.UserBadges(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user badges: %w", err)
	}
	owned := make(map[uint]*model.UserBadge, len(ubs))
	for i := range ubs {
		owned[ubs[i].BadgeID] = &ubs[i]
	}
	return catalog, owned, nil
}

// award 发放徽章。(user_id, badge_id) 唯一索引兜底并发：
// 插入冲突说明别的请求刚写入了该行，重新读取后再尝试把它升级为已完成。
func (s *BadgeService) award(ctx context.Context, userID uint, badge model.Badge, existing *model.UserBadge, now time.Time) (bool, error) {
	if existing != nil {
		if existing.IsCompleted {
			return false, nil
		}
		ok, err := s.Store.CompleteUserBadge(ctx, existing.ID, badge.RequirementValue, now)
		if err != nil {
			return false, fmt.Errorf("complete badge %s: %w", badge.BadgeType, err)
		}
		if ok {
			s.onAwarded(userID, badge)
		}
		return ok, nil
	}

	earned := now
	ub := &model.UserBadge{
		UserID:      userID,
		BadgeID:     badge.ID,
		Progress:    badge.RequirementValue,
		IsCompleted: true,
		EarnedAt:    &earned,
	}
	err := s.Store.CreateUserBadge(ctx, ub)
	if err == nil {
		s.onAwarded(userID, badge)
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, fmt.Errorf("award badge %s: %w", badge.BadgeType, err)
	}

	_, owned, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	current := owned[badge.ID]
	if current == nil || current.IsCompleted {
		return false, nil
	}
	ok, err := s.Store.CompleteUserBadge(ctx, current.ID, badge.RequirementValue, now)
	if err != nil {
		return false, fmt.Errorf("complete badge %s: %w", badge.BadgeType, err)
	}
	if ok {
		s.onAwarded(userID, badge)
	}
	return ok, nil
}

func (s *BadgeService) recordProgress(ctx context.Context, userID uint, badge model.Badge, existing *model.UserBadge, progress int) error {
	if existing != nil {
		if existing.Progress == progress {
			return nil
		}
		return s.Store.UpdateProgress(ctx, existing.ID, progress)
	}
	err := s.Store.CreateUserBadge(ctx, &model.UserBadge{UserID: userID, BadgeID: badge.ID, Progress: progress})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (s *BadgeService) onAwarded(userID uint, badge model.Badge) {
	monitoring.BadgeAwardCounter.WithLabelValues(string(badge.BadgeType)).Inc()
	logger.Log.Info("Badge awarded",
		zap.Uint("user_id", userID),
		zap.String("badge_type", string(badge.BadgeType)))
}

func (s *BadgeService) UserBadges(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	return s.Store.UserBadges(ctx, userID)
}

func (s *BadgeService) AvailableBadges(ctx context.Context) ([]model.Badge, error) {
	return s.Store.ListBadges(ctx)
}

func (s *BadgeService) CreateBadge(ctx context.Context, b *model.Badge) error {
	return s.Store.CreateBadge(ctx, b)
}

func (s *BadgeService) DeleteBadge(ctx context.Context, id uint) error {
	return s.Store.DeleteBadge(ctx, id)
}
