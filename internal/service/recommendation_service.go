package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	urgentWellnessBelow = 50.0
	lowMoodBelow        = 0.4
	recentMoodSamples   = 3
	urgentPerRule       = 2
	goalPerCategory     = 3
	popularCount        = 3
	popularWindowDays   = 30
	popularScanDepth    = 50
	exploreCategories   = 2
	explorePerCategory  = 2
	completedWindowDays = 7

	// 推荐列表硬上限，配置只能调小
	maxRecommendations = 10
)

const (
	reasonElevatedStress = "Your recent biometric data suggests elevated stress levels"
	reasonSleepConcerns  = "Your journal entries suggest sleep-related concerns"
	reasonPopular        = "Popular among other users"
)

var sleepKeywords = []string{"sleep", "tired", "exhausted", "insomnia", "rest"}

type ContentCatalog interface {
	FindContent(ctx context.Context, f model.ContentFilter) ([]model.Content, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Content, error)
}

type ActivityHistory interface {
	CompletedContentIDs(ctx context.Context, userID uint, since time.Time) ([]uint, error)
	CountCompletions(ctx context.Context, userID uint, since time.Time) (int64, error)
}

type PopularitySource interface {
	PopularContent(ctx context.Context, since time.Time, limit int) ([]model.ContentPopularity, error)
}

type GoalSource interface {
	GoalNames(ctx context.Context, userID uint) ([]string, error)
}

type JournalSource interface {
	JournalTexts(ctx context.Context, userID uint, since time.Time) ([]string, error)
}

// RecommendationService 按优先级梯度（紧急 > 目标 > 热门 > 探索）挑选内容
type RecommendationService struct {
	Catalog  ContentCatalog
	History  ActivityHistory
	Popular  PopularitySource
	Goals    GoalSource
	Journals JournalSource
	Wellness *WellnessService
	Now      func() time.Time

	cfgMu sync.RWMutex
	cfg   config.PersonalizationConfig

	// 探索层的随机源，并发访问需加锁
	rng   *rand.Rand
	rngMu sync.Mutex
}

func NewRecommendationService(
	catalog ContentCatalog,
	history ActivityHistory,
	popular PopularitySource,
	goals GoalSource,
	journals JournalSource,
	wellness *WellnessService,
	cfg config.PersonalizationConfig,
	rng *rand.Rand,
) *RecommendationService {
	if rng == nil {
		seed := cfg.ExplorationSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed)) //nolint:gosec // 推荐打散不需要密码学随机数
	}
	return &RecommendationService{
		Catalog:  catalog,
		History:  history,
		Popular:  popular,
		Goals:    goals,
		Journals: journals,
		Wellness: wellness,
		Now:      time.Now,
		cfg:      cfg,
		rng:      rng,
	}
}

// UpdateConfig 配置热更新时替换目标映射等参数
func (s *RecommendationService) UpdateConfig(cfg config.PersonalizationConfig) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

func (s *RecommendationService) personalization() config.PersonalizationConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// GenerateRecommendations 返回去重后的推荐列表（至多 10 条，max_recommendations 可再调小）
func (s *RecommendationService) GenerateRecommendations(ctx context.Context, userID uint) ([]model.RecommendationCandidate, error) {
	now := s.Now()
	snap := s.Wellness.Snapshot(ctx, userID, now)
	return s.Recommend(ctx, userID, snap, now)
}

// Recommend 使用调用方已读取的健康快照排序，供首页议程复用
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, snap WellnessSnapshot, now time.Time) ([]model.RecommendationCandidate, error) {
	cfg := s.personalization()

	exclude, err := s.History.CompletedContentIDs(ctx, userID, now.AddDate(0, 0, -completedWindowDays))
	if err != nil {
		return nil, fmt.Errorf("load recent completions: %w", err)
	}

	var candidates []model.RecommendationCandidate

	// 紧急层按对外展示的一位小数分数判断
	if round1(snap.Score.Score) < urgentWellnessBelow {
		urgent, err := s.urgentTier(ctx, userID, snap.Mood, exclude, now)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, urgent...)
	}

	goal, err := s.goalTier(ctx, userID, cfg, exclude)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, goal...)

	popular, err := s.popularTier(ctx, exclude, now)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, popular...)

	explore, err := s.exploreTier(ctx, exclude)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, explore...)

	result := dedupeCandidates(candidates, cfg.MaxRecommendations)
	for _, c := range result {
		monitoring.RecommendationCounter.WithLabelValues(strconv.Itoa(c.Priority)).Inc()
	}
	return result, nil
}

func (s *RecommendationService) urgentTier(ctx context.Context, userID uint, mood []model.Signal, exclude []uint, now time.Time) ([]model.RecommendationCandidate, error) {
	var out []model.RecommendationCandidate

	if hasLowRecentMood(mood) {
		items, err := s.Catalog.FindContent(ctx, model.ContentFilter{
			Category:     model.CategoryAnxiety,
			ContentTypes: []model.ContentType{model.ContentMeditation, model.ContentMusic},
			ExcludeIDs:   exclude,
			Limit:        urgentPerRule,
		})
		if err != nil {
			return nil, fmt.Errorf("load stress relief content: %w", err)
		}
		out = appendCandidates(out, items, reasonElevatedStress, model.PriorityUrgent)
	}

	if s.mentionsSleep(ctx, userID, now) {
		items, err := s.Catalog.FindContent(ctx, model.ContentFilter{
			Category:   model.CategorySleep,
			ExcludeIDs: exclude,
			Limit:      urgentPerRule,
		})
		if err != nil {
			return nil, fmt.Errorf("load sleep content: %w", err)
		}
		out = appendCandidates(out, items, reasonSleepConcerns, model.PriorityUrgent)
	}
	return out, nil
}

// hasLowRecentMood 最近 3 次心情中任一低于 0.4；mood 按时间升序
func hasLowRecentMood(mood []model.Signal) bool {
	start := len(mood) - recentMoodSamples
	if start < 0 {
		start = 0
	}
	for _, m := range mood[start:] {
		if m.Score < lowMoodBelow {
			return true
		}
	}
	return false
}

func (s *RecommendationService) mentionsSleep(ctx context.Context, userID uint, now time.Time) bool {
	if s.Journals == nil {
		return false
	}
	texts, err := s.Journals.JournalTexts(ctx, userID, now.AddDate(0, 0, -signalWindowDays))
	if err != nil {
		logger.Log.Warn("journal texts unavailable", zap.Uint("user_id", userID), zap.Error(err))
		return false
	}
	return ContainsSleepKeyword(texts)
}

func ContainsSleepKeyword(texts []string) bool {
	for _, t := range texts {
		lower := strings.ToLower(t)
		for _, kw := range sleepKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// GoalCategories 把目标名映射为分类，保持声明顺序并去重
func GoalCategories(cfg config.PersonalizationConfig, goalNames []string) []model.Category {
	seen := make(map[model.Category]bool, len(goalNames))
	var cats []model.Category
	for _, name := range goalNames {
		c := model.Category(cfg.GoalCategory(name))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	return cats
}

func (s *RecommendationService) goalTier(ctx context.Context, userID uint, cfg config.PersonalizationConfig, exclude []uint) ([]model.RecommendationCandidate, error) {
	if s.Goals == nil {
		return nil, nil
	}
	names, err := s.Goals.GoalNames(ctx, userID)
	if err != nil {
		logger.Log.Warn("goals unavailable", zap.Uint("user_id", userID), zap.Error(err))
		return nil, nil
	}

	var out []model.RecommendationCandidate
	for _, cat := range GoalCategories(cfg, names) {
		items, err := s.Catalog.FindContent(ctx, model.ContentFilter{
			Category:   cat,
			ExcludeIDs: exclude,
			Limit:      goalPerCategory,
		})
		if err != nil {
			return nil, fmt.Errorf("load goal content for %s: %w", cat, err)
		}
		out = appendCandidates(out, items, "Recommended based on your goal: "+cat.Title(), model.PriorityGoal)
	}
	return out, nil
}

func (s *RecommendationService) popularTier(ctx context.Context, exclude []uint, now time.Time) ([]model.RecommendationCandidate, error) {
	if s.Popular == nil {
		return nil, nil
	}
	ranked, err := s.Popular.PopularContent(ctx, now.AddDate(0, 0, -popularWindowDays), popularScanDepth)
	if err != nil {
		return nil, fmt.Errorf("load popular content: %w", err)
	}

	excluded := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	ids := make([]uint, 0, popularCount)
	for _, row := range ranked {
		if excluded[row.ContentID] {
			continue
		}
		ids = append(ids, row.ContentID)
		if len(ids) == popularCount {
			break
		}
	}

	items, err := s.Catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load popular content: %w", err)
	}
	return appendCandidates(nil, items, reasonPopular, model.PriorityPopular), nil
}

func (s *RecommendationService) exploreTier(ctx context.Context, exclude []uint) ([]model.RecommendationCandidate, error) {
	var out []model.RecommendationCandidate
	for _, cat := range s.pickCategories(exploreCategories) {
		items, err := s.Catalog.FindContent(ctx, model.ContentFilter{
			Category:   cat,
			ExcludeIDs: exclude,
			Limit:      explorePerCategory,
		})
		if err != nil {
			return nil, fmt.Errorf("load exploration content for %s: %w", cat, err)
		}
		out = appendCandidates(out, items, fmt.Sprintf("Explore %s content", cat.Title()), model.PriorityExplore)
	}
	return out, nil
}

func (s *RecommendationService) pickCategories(n int) []model.Category {
	s.rngMu.Lock()
	perm := s.rng.Perm(len(model.Categories))
	s.rngMu.Unlock()

	if n > len(perm) {
		n = len(perm)
	}
	cats := make([]model.Category, 0, n)
	for _, i := range perm[:n] {
		cats = append(cats, model.Categories[i])
	}
	return cats
}

func appendCandidates(out []model.RecommendationCandidate, items []model.Content, reason string, priority int) []model.RecommendationCandidate {
	for _, item := range items {
		out = append(out, model.RecommendationCandidate{Content: item, Reason: reason, Priority: priority})
	}
	return out
}

// dedupeCandidates 按层级顺序保留每个内容第一次出现的条目
func dedupeCandidates(candidates []model.RecommendationCandidate, limit int) []model.RecommendationCandidate {
	if limit <= 0 || limit > maxRecommendations {
		limit = maxRecommendations
	}
	seen := make(map[uint]bool, len(candidates))
	out := make([]model.RecommendationCandidate, 0, limit)
	for _, c := range candidates {
		if seen[c.Content.ID] {
			continue
		}
		seen[c.Content.ID] = true
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}
