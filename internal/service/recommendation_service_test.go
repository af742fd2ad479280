package service

import (
	"context"
	"math/rand"
	"sort"
	"testing"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/model"
)

type fakeCatalog struct {
	items []model.Content
}

func (f *fakeCatalog) FindContent(ctx context.Context, filter model.ContentFilter) ([]model.Content, error) {
	excluded := make(map[uint]bool)
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}
	var out []model.Content
	for _, c := range f.items {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if len(filter.ContentTypes) > 0 && !containsType(filter.ContentTypes, c.ContentType) {
			continue
		}
		if excluded[c.ID] {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCatalog) FindByIDs(ctx context.Context, ids []uint) ([]model.Content, error) {
	var out []model.Content
	for _, id := range ids {
		for _, c := range f.items {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func containsType(types []model.ContentType, t model.ContentType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

type fakeHistory struct {
	completed []uint
	count     int64
}

func (f *fakeHistory) CompletedContentIDs(ctx context.Context, userID uint, since time.Time) ([]uint, error) {
	return f.completed, nil
}

func (f *fakeHistory) CountCompletions(ctx context.Context, userID uint, since time.Time) (int64, error) {
	return f.count, nil
}

type fakePopular struct {
	ranked []model.ContentPopularity
}

func (f *fakePopular) PopularContent(ctx context.Context, since time.Time, limit int) ([]model.ContentPopularity, error) {
	if len(f.ranked) > limit {
		return f.ranked[:limit], nil
	}
	return f.ranked, nil
}

type fakeGoals struct {
	names []string
}

func (f *fakeGoals) GoalNames(ctx context.Context, userID uint) ([]string, error) {
	return f.names, nil
}

type fakeJournals struct {
	texts []string
}

func (f *fakeJournals) JournalTexts(ctx context.Context, userID uint, since time.Time) ([]string, error) {
	return f.texts, nil
}

// 每个分类 5 条：id = 分类序号*10 + 1..5，前两条是冥想、其余是文章
func testCatalog() *fakeCatalog {
	var items []model.Content
	for ci, cat := range model.Categories {
		for i := 1; i <= 5; i++ {
			ct := model.ContentArticle
			if i <= 2 {
				ct = model.ContentMeditation
			}
			c := model.Content{Title: string(cat), Category: cat, ContentType: ct}
			c.ID = uint((ci+1)*10 + i)
			items = append(items, c)
		}
	}
	return &fakeCatalog{items: items}
}

func testPersonalization() config.PersonalizationConfig {
	return config.PersonalizationConfig{
		GoalCategories: map[string]string{
			"reduce stress": "anxiety",
			"improve sleep": "sleep",
		},
		DefaultCategory:    "self_confidence",
		MaxRecommendations: 10,
	}
}

type recFixture struct {
	catalog  *fakeCatalog
	history  *fakeHistory
	popular  *fakePopular
	goals    *fakeGoals
	journals *fakeJournals
}

func newRecFixture() *recFixture {
	return &recFixture{
		catalog:  testCatalog(),
		history:  &fakeHistory{},
		popular:  &fakePopular{},
		goals:    &fakeGoals{},
		journals: &fakeJournals{},
	}
}

func (f *recFixture) service(seed int64) *RecommendationService {
	return NewRecommendationService(f.catalog, f.history, f.popular, f.goals, f.journals, nil,
		testPersonalization(), rand.New(rand.NewSource(seed)))
}

var recNow = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

func healthy() WellnessSnapshot {
	return WellnessSnapshot{Score: ComputeWellness(signals(0.8), signals(0.9)), Mood: signals(0.9)}
}

func struggling(mood ...float64) WellnessSnapshot {
	return WellnessSnapshot{Score: ComputeWellness(signals(-0.6), signals(mood...)), Mood: signals(mood...)}
}

func assertUnique(t *testing.T, recs []model.RecommendationCandidate) {
	t.Helper()
	seen := make(map[uint]bool)
	for _, r := range recs {
		if seen[r.Content.ID] {
			t.Fatalf("content %d recommended twice", r.Content.ID)
		}
		seen[r.Content.ID] = true
	}
}

func assertPriorityOrder(t *testing.T, recs []model.RecommendationCandidate) {
	t.Helper()
	for i := 1; i < len(recs); i++ {
		if recs[i].Priority < recs[i-1].Priority {
			t.Fatalf("priority order broken at %d: %d after %d", i, recs[i].Priority, recs[i-1].Priority)
		}
	}
}

func TestRecommend_HealthyUserSkipsUrgentTier(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Improve sleep"}
	svc := f.service(1)

	recs, err := svc.Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) == 0 || len(recs) > 10 {
		t.Fatalf("unexpected result size %d", len(recs))
	}
	for _, r := range recs {
		if r.Priority == model.PriorityUrgent {
			t.Fatalf("no urgent items expected for a healthy user: %+v", r)
		}
	}
	for i := 0; i < 3; i++ {
		if recs[i].Priority != model.PriorityGoal || recs[i].Content.Category != model.CategorySleep {
			t.Errorf("item %d: expected sleep goal content, got %+v", i, recs[i])
		}
		if recs[i].Reason != "Recommended based on your goal: Sleep" {
			t.Errorf("unexpected goal reason %q", recs[i].Reason)
		}
	}
	assertUnique(t, recs)
	assertPriorityOrder(t, recs)
}

func TestRecommend_UrgentWinsDeduplication(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Reduce stress"}
	svc := f.service(1)

	recs, err := svc.Recommend(context.Background(), 1, struggling(0.7, 0.3, 0.6), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) < 2 {
		t.Fatalf("expected urgent items, got %v", recs)
	}
	for i, id := range []uint{21, 22} {
		if recs[i].Content.ID != id || recs[i].Priority != model.PriorityUrgent {
			t.Errorf("item %d: expected urgent content %d, got %+v", i, id, recs[i])
		}
		if recs[i].Reason != "Your recent biometric data suggests elevated stress levels" {
			t.Errorf("unexpected urgent reason %q", recs[i].Reason)
		}
	}
	// 目标层同样会选中 21/22，去重后只保留紧急层的条目
	if recs[2].Content.ID != 23 || recs[2].Priority != model.PriorityGoal {
		t.Errorf("expected goal tier to continue with 23, got %+v", recs[2])
	}
	assertUnique(t, recs)
	assertPriorityOrder(t, recs)
}

func TestRecommend_SleepMentionTriggersUrgentSleepContent(t *testing.T) {
	f := newRecFixture()
	f.journals.texts = []string{"Another night of INSOMNIA"}
	svc := f.service(1)

	recs, err := svc.Recommend(context.Background(), 1, struggling(0.5, 0.5, 0.5), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if recs[0].Content.ID != 11 || recs[1].Content.ID != 12 {
		t.Fatalf("expected sleep content first, got %d, %d", recs[0].Content.ID, recs[1].Content.ID)
	}
	if recs[0].Reason != "Your journal entries suggest sleep-related concerns" || recs[0].Priority != model.PriorityUrgent {
		t.Errorf("unexpected urgent sleep item %+v", recs[0])
	}
}

func TestRecommend_ExcludesRecentlyCompleted(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Improve sleep", "Reduce stress"}
	f.history.completed = []uint{11, 12, 21, 31}
	f.popular.ranked = []model.ContentPopularity{{ContentID: 31, Completions: 9}, {ContentID: 41, Completions: 5}}
	svc := f.service(3)

	recs, err := svc.Recommend(context.Background(), 1, struggling(0.1), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, r := range recs {
		for _, id := range f.history.completed {
			if r.Content.ID == id {
				t.Fatalf("completed content %d was recommended", id)
			}
		}
	}
}

func TestRecommend_PopularTier(t *testing.T) {
	f := newRecFixture()
	f.history.completed = []uint{41}
	f.popular.ranked = []model.ContentPopularity{
		{ContentID: 41, Completions: 20},
		{ContentID: 33, Completions: 12},
		{ContentID: 15, Completions: 7},
		{ContentID: 24, Completions: 3},
		{ContentID: 44, Completions: 1},
	}
	svc := f.service(5)

	recs, err := svc.Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	want := []uint{33, 15, 24}
	for i, id := range want {
		if recs[i].Content.ID != id || recs[i].Priority != model.PriorityPopular || recs[i].Reason != "Popular among other users" {
			t.Errorf("item %d: expected popular %d, got %+v", i, id, recs[i])
		}
	}
}

func TestRecommend_CapsAtTen(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Improve sleep", "Reduce stress", "Feel better"}
	f.journals.texts = []string{"so tired"}
	f.popular.ranked = []model.ContentPopularity{{ContentID: 45}, {ContentID: 44}, {ContentID: 43}}
	svc := f.service(9)

	recs, err := svc.Recommend(context.Background(), 1, struggling(0.1, 0.1, 0.1), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 10 {
		t.Fatalf("expected exactly 10 recommendations, got %d", len(recs))
	}
	assertUnique(t, recs)
	assertPriorityOrder(t, recs)
}

func TestRecommend_ExplorationIsDeterministicForSeed(t *testing.T) {
	f := newRecFixture()

	first, err := f.service(42).Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	second, err := f.service(42).Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("expected 2 categories x 2 items, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content.ID != second[i].Content.ID {
			t.Fatalf("same seed produced different exploration at %d", i)
		}
		if first[i].Priority != model.PriorityExplore {
			t.Errorf("expected exploration priority, got %d", first[i].Priority)
		}
	}
	if first[0].Content.Category == first[2].Content.Category {
		t.Error("exploration should pick two distinct categories")
	}
	if want := "Explore " + first[0].Content.Category.Title() + " content"; first[0].Reason != want {
		t.Errorf("expected reason %q, got %q", want, first[0].Reason)
	}
}

func TestRecommend_HotReloadedGoalMap(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Focus"}
	svc := f.service(1)

	cfg := testPersonalization()
	cfg.GoalCategories["focus"] = "work"
	svc.UpdateConfig(cfg)

	recs, err := svc.Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if recs[0].Content.Category != model.CategoryWork || recs[0].Priority != model.PriorityGoal {
		t.Errorf("expected work goal content first, got %+v", recs[0])
	}
}

func TestGoalCategories(t *testing.T) {
	cfg := testPersonalization()
	got := GoalCategories(cfg, []string{"Improve Sleep", "Learn juggling", "improve sleep", "Reduce stress"})
	want := []model.Category{model.CategorySleep, model.CategorySelfConfidence, model.CategoryAnxiety}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestContainsSleepKeyword(t *testing.T) {
	cases := []struct {
		texts []string
		want  bool
	}{
		{[]string{"Feeling so TIRED today"}, true},
		{[]string{"great day", "need some Rest"}, true},
		{[]string{"Exhausted after work"}, true},
		{[]string{"had a lovely walk"}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := ContainsSleepKeyword(tc.texts); got != tc.want {
			t.Errorf("ContainsSleepKeyword(%q): expected %v, got %v", tc.texts, tc.want, got)
		}
	}
}

func TestHasLowRecentMood(t *testing.T) {
	if hasLowRecentMood(signals(0.1, 0.9, 0.9, 0.9)) {
		t.Error("only the last three samples count")
	}
	if !hasLowRecentMood(signals(0.9, 0.39)) {
		t.Error("expected a low sample to trigger")
	}
	if hasLowRecentMood(nil) {
		t.Error("no samples should not trigger")
	}
}

func TestRecommend_ConfigCannotRaiseCap(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Improve sleep", "Reduce stress", "Feel better"}
	f.journals.texts = []string{"so tired"}
	f.popular.ranked = []model.ContentPopularity{{ContentID: 45}, {ContentID: 44}, {ContentID: 43}}
	svc := f.service(9)

	cfg := testPersonalization()
	cfg.MaxRecommendations = 25
	svc.UpdateConfig(cfg)

	recs, err := svc.Recommend(context.Background(), 1, struggling(0.1, 0.1, 0.1), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 10 {
		t.Fatalf("expected the list to stay capped at 10, got %d", len(recs))
	}
	assertUnique(t, recs)
}

func TestRecommend_ConfigCanLowerCap(t *testing.T) {
	f := newRecFixture()
	f.goals.names = []string{"Improve sleep", "Reduce stress"}
	svc := f.service(9)

	cfg := testPersonalization()
	cfg.MaxRecommendations = 3
	svc.UpdateConfig(cfg)

	recs, err := svc.Recommend(context.Background(), 1, healthy(), recNow)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
}

func TestRecommend_UrgentThresholdUsesDisplayedScore(t *testing.T) {
	cases := []struct {
		score      float64
		wantUrgent bool
	}{
		{49.96, false}, // 展示为 50.0
		{49.94, true},
	}
	for _, tc := range cases {
		f := newRecFixture()
		snap := WellnessSnapshot{Score: model.WellnessScore{Score: tc.score}, Mood: signals(0.1, 0.1, 0.1)}

		recs, err := f.service(1).Recommend(context.Background(), 1, snap, recNow)
		if err != nil {
			t.Fatalf("Recommend failed: %v", err)
		}
		gotUrgent := len(recs) > 0 && recs[0].Priority == model.PriorityUrgent
		if gotUrgent != tc.wantUrgent {
			t.Errorf("score %v: expected urgent=%v, got %v", tc.score, tc.wantUrgent, gotUrgent)
		}
	}
}
