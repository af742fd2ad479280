package service

import (
	"context"
	"testing"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type fakeBadgeStore struct {
	catalog []model.Badge
	rows    map[uint]*model.UserBadge // badge_id -> row
	nextID  uint
	creates int
	// racer 模拟并发请求在本次插入前抢先写入同一行
	racer func(badgeID uint) *model.UserBadge
}

func newFakeBadgeStore() *fakeBadgeStore {
	s := &fakeBadgeStore{rows: make(map[uint]*model.UserBadge)}
	for i, b := range model.DefaultBadges {
		b.ID = uint(i + 1)
		s.catalog = append(s.catalog, b)
	}
	return s
}

func (s *fakeBadgeStore) badgeID(t model.BadgeType) uint {
	for _, b := range s.catalog {
		if b.BadgeType == t {
			return b.ID
		}
	}
	return 0
}

func (s *fakeBadgeStore) ListBadges(ctx context.Context) ([]model.Badge, error) {
	return s.catalog, nil
}

func (s *fakeBadgeStore) UserBadges(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var out []model.UserBadge
	for _, r := range s.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeBadgeStore) CreateUserBadge(ctx context.Context, ub *model.UserBadge) error {
	s.creates++
	if s.racer != nil {
		if row := s.racer(ub.BadgeID); row != nil {
			s.nextID++
			row.ID = s.nextID
			s.rows[ub.BadgeID] = row
		}
		s.racer = nil
	}
	if _, ok := s.rows[ub.BadgeID]; ok {
		return gorm.ErrDuplicatedKey
	}
	s.nextID++
	ub.ID = s.nextID
	row := *ub
	s.rows[ub.BadgeID] = &row
	return nil
}

func (s *fakeBadgeStore) CompleteUserBadge(ctx context.Context, id uint, progress int, at time.Time) (bool, error) {
	for _, r := range s.rows {
		if r.ID == id && !r.IsCompleted {
			r.IsCompleted = true
			r.Progress = progress
			r.EarnedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBadgeStore) UpdateProgress(ctx context.Context, id uint, progress int) error {
	for _, r := range s.rows {
		if r.ID == id {
			r.Progress = progress
		}
	}
	return nil
}

func (s *fakeBadgeStore) CreateBadge(ctx context.Context, b *model.Badge) error { return nil }
func (s *fakeBadgeStore) DeleteBadge(ctx context.Context, id uint) error        { return nil }

type fakeCounter struct {
	counts map[string]int64
}

func (f *fakeCounter) CountMatching(ctx context.Context, userID uint, contentType model.ContentType, category model.Category) (int64, error) {
	return f.counts[string(contentType)+"|"+string(category)], nil
}

var badgeNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestBadgeService(store *fakeBadgeStore, counter CompletionCounter, rules []config.CountBadgeRule) *BadgeService {
	svc := NewBadgeService(store, counter, rules)
	svc.Now = func() time.Time { return badgeNow }
	return svc
}

func TestEvaluateBadges_AwardsWeeklyOnce(t *testing.T) {
	store := newFakeBadgeStore()
	svc := newTestBadgeService(store, nil, nil)
	ctx := context.Background()

	got, err := svc.EvaluateBadges(ctx, 1, 6)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected nothing at 6 days, got %v (%v)", got, err)
	}

	got, err = svc.EvaluateBadges(ctx, 1, 7)
	if err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if len(got) != 1 || got[0] != model.BadgeWeeklyStreak {
		t.Fatalf("expected weekly streak badge, got %v", got)
	}
	row := store.rows[store.badgeID(model.BadgeWeeklyStreak)]
	if !row.IsCompleted || row.Progress != 7 || row.EarnedAt == nil || !row.EarnedAt.Equal(badgeNow) {
		t.Errorf("unexpected award row: %+v", row)
	}

	got, err = svc.EvaluateBadges(ctx, 1, 8)
	if err != nil || len(got) != 0 {
		t.Errorf("weekly badge must not be awarded twice, got %v (%v)", got, err)
	}
	if store.creates != 1 {
		t.Errorf("expected one insert, got %d", store.creates)
	}
}

func TestEvaluateBadges_LongStreakAwardsAllTiers(t *testing.T) {
	store := newFakeBadgeStore()
	svc := newTestBadgeService(store, nil, nil)

	got, err := svc.EvaluateBadges(context.Background(), 1, 365)
	if err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 streak badges, got %v", got)
	}
	for _, b := range got {
		if !b.IsStreak() {
			t.Errorf("unexpected non-streak badge %s", b)
		}
	}
}

func TestEvaluateBadges_NeverRevoked(t *testing.T) {
	store := newFakeBadgeStore()
	svc := newTestBadgeService(store, nil, nil)
	ctx := context.Background()

	if _, err := svc.EvaluateBadges(ctx, 1, 7); err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if _, err := svc.EvaluateBadges(ctx, 1, 0); err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if row := store.rows[store.badgeID(model.BadgeWeeklyStreak)]; row == nil || !row.IsCompleted {
		t.Error("weekly badge should survive a broken streak")
	}
}

func TestEvaluateBadges_DuplicateKeyRaceCountsAsAwarded(t *testing.T) {
	store := newFakeBadgeStore()
	store.racer = func(badgeID uint) *model.UserBadge {
		earned := badgeNow
		return &model.UserBadge{UserID: 1, BadgeID: badgeID, Progress: 7, IsCompleted: true, EarnedAt: &earned}
	}
	svc := newTestBadgeService(store, nil, nil)

	got, err := svc.EvaluateBadges(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("duplicate key should not surface as an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("the racing request owns the award, got %v", got)
	}
	if len(store.rows) != 1 {
		t.Errorf("expected a single row, got %d", len(store.rows))
	}
}

func TestEvaluateBadges_RaceWithProgressRowUpgrades(t *testing.T) {
	store := newFakeBadgeStore()
	store.racer = func(badgeID uint) *model.UserBadge {
		return &model.UserBadge{UserID: 1, BadgeID: badgeID, Progress: 3}
	}
	svc := newTestBadgeService(store, nil, nil)

	got, err := svc.EvaluateBadges(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the incomplete row to be upgraded, got %v", got)
	}
	if row := store.rows[store.badgeID(model.BadgeWeeklyStreak)]; !row.IsCompleted || row.Progress != 7 {
		t.Errorf("unexpected row after upgrade: %+v", row)
	}
}

func TestEvaluateBadges_UpgradesIncompleteRowInPlace(t *testing.T) {
	store := newFakeBadgeStore()
	id := store.badgeID(model.BadgeWeeklyStreak)
	store.nextID = 1
	store.rows[id] = &model.UserBadge{UserID: 1, BadgeID: id, Progress: 2}
	store.rows[id].ID = 1
	svc := newTestBadgeService(store, nil, nil)

	got, err := svc.EvaluateBadges(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("EvaluateBadges failed: %v", err)
	}
	if len(got) != 1 || store.creates != 0 {
		t.Errorf("expected in-place upgrade without insert, got %v, %d inserts", got, store.creates)
	}
}

func TestEvaluateCountBadges(t *testing.T) {
	store := newFakeBadgeStore()
	counter := &fakeCounter{counts: map[string]int64{"meditation|": 12}}
	rules := []config.CountBadgeRule{
		{BadgeType: string(model.BadgeMeditationMaster), ContentType: string(model.ContentMeditation)},
		{BadgeType: string(model.BadgeSleepExpert), Category: string(model.CategorySleep)},
	}
	svc := newTestBadgeService(store, counter, rules)
	ctx := context.Background()
	meditation := model.Content{ContentType: model.ContentMeditation, Category: model.CategoryAnxiety}

	got, err := svc.EvaluateCountBadges(ctx, 1, meditation)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected progress only, got %v (%v)", got, err)
	}
	row := store.rows[store.badgeID(model.BadgeMeditationMaster)]
	if row == nil || row.Progress != 12 || row.IsCompleted {
		t.Fatalf("expected a progress row at 12, got %+v", row)
	}
	if store.rows[store.badgeID(model.BadgeSleepExpert)] != nil {
		t.Error("sleep rule must not match anxiety content")
	}

	counter.counts["meditation|"] = 50
	got, err = svc.EvaluateCountBadges(ctx, 1, meditation)
	if err != nil {
		t.Fatalf("EvaluateCountBadges failed: %v", err)
	}
	if len(got) != 1 || got[0] != model.BadgeMeditationMaster {
		t.Fatalf("expected meditation master, got %v", got)
	}
	if !row.IsCompleted || row.Progress != 50 {
		t.Errorf("expected completed row at 50, got %+v", row)
	}

	counter.counts["meditation|"] = 51
	got, _ = svc.EvaluateCountBadges(ctx, 1, meditation)
	if len(got) != 0 {
		t.Errorf("count badge must not be awarded twice, got %v", got)
	}
}

func TestRuleMatches(t *testing.T) {
	c := model.Content{ContentType: model.ContentMusic, Category: model.CategorySleep}
	cases := []struct {
		rule config.CountBadgeRule
		want bool
	}{
		{config.CountBadgeRule{Category: "sleep"}, true},
		{config.CountBadgeRule{ContentType: "music"}, true},
		{config.CountBadgeRule{ContentType: "music", Category: "work"}, false},
		{config.CountBadgeRule{ContentType: "meditation"}, false},
		{config.CountBadgeRule{}, false},
	}
	for _, tc := range cases {
		if got := ruleMatches(tc.rule, c); got != tc.want {
			t.Errorf("ruleMatches(%+v): expected %v, got %v", tc.rule, tc.want, got)
		}
	}
}
