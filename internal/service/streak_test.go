package service

import (
	"context"
	"math"
	"testing"
	"time"
	"uplook_backend/internal/model"
)

func day(d, hour int) time.Time {
	return time.Date(2024, 5, d, hour, 0, 0, 0, time.UTC)
}

func TestApplyActivity(t *testing.T) {
	last := day(10, 21)
	cases := []struct {
		name    string
		state   model.StreakState
		at      time.Time
		current int
		longest int
	}{
		{"first activity", model.StreakState{}, day(10, 8), 1, 1},
		{"same day is idempotent", model.StreakState{CurrentStreak: 3, LongestStreak: 5, LastActivityDate: &last}, day(10, 23), 3, 5},
		{"next day increments", model.StreakState{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: &last}, day(11, 1), 4, 4},
		{"gap resets", model.StreakState{CurrentStreak: 6, LongestStreak: 6, LastActivityDate: &last}, day(12, 9), 1, 6},
		{"earlier timestamp is ignored", model.StreakState{CurrentStreak: 2, LongestStreak: 2, LastActivityDate: &last}, day(9, 9), 2, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyActivity(tc.state, tc.at)
			if got.CurrentStreak != tc.current {
				t.Errorf("current: expected %d, got %d", tc.current, got.CurrentStreak)
			}
			if got.LongestStreak != tc.longest {
				t.Errorf("longest: expected %d, got %d", tc.longest, got.LongestStreak)
			}
			if got.LongestStreak < got.CurrentStreak {
				t.Errorf("longest %d below current %d", got.LongestStreak, got.CurrentStreak)
			}
		})
	}
}

func TestApplyActivity_SameDayKeepsOriginalStamp(t *testing.T) {
	first := ApplyActivity(model.StreakState{}, day(10, 8))
	again := ApplyActivity(first, day(10, 22))
	if !again.LastActivityDate.Equal(day(10, 8)) {
		t.Errorf("expected last activity to stay at first log, got %v", again.LastActivityDate)
	}
}

func TestApplyActivity_UsesCalendarDays(t *testing.T) {
	// 23:59 到次日 00:01 只隔两分钟，但跨了一个日历日
	late := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	state := model.StreakState{CurrentStreak: 1, LongestStreak: 1, LastActivityDate: &late}
	got := ApplyActivity(state, time.Date(2024, 5, 11, 0, 1, 0, 0, time.UTC))
	if got.CurrentStreak != 2 {
		t.Errorf("expected 2, got %d", got.CurrentStreak)
	}
}

func TestApplyActivity_LongestIsMonotonic(t *testing.T) {
	state := model.StreakState{}
	prevLongest := 0
	days := []int{1, 2, 3, 5, 6, 9, 10, 11, 12, 13}
	for _, d := range days {
		state = ApplyActivity(state, day(d, 12))
		if state.LongestStreak < prevLongest {
			t.Fatalf("longest decreased on day %d: %d -> %d", d, prevLongest, state.LongestStreak)
		}
		prevLongest = state.LongestStreak
	}
	if state.CurrentStreak != 5 || state.LongestStreak != 5 {
		t.Errorf("expected 5/5, got %d/%d", state.CurrentStreak, state.LongestStreak)
	}
}

func TestEffectiveStreak(t *testing.T) {
	last := day(10, 12)
	state := model.StreakState{CurrentStreak: 4, LongestStreak: 9, LastActivityDate: &last}

	if got := EffectiveStreak(state, day(10, 20)); got != 4 {
		t.Errorf("same day: expected 4, got %d", got)
	}
	if got := EffectiveStreak(state, day(11, 20)); got != 4 {
		t.Errorf("next day: expected 4, got %d", got)
	}
	if got := EffectiveStreak(state, day(12, 0)); got != 0 {
		t.Errorf("two days later: expected 0, got %d", got)
	}
	if got := EffectiveStreak(model.StreakState{}, day(12, 0)); got != 0 {
		t.Errorf("no activity: expected 0, got %d", got)
	}
}

func TestStreakPercentage(t *testing.T) {
	cases := map[int]float64{0: 0, 1: 14.285714285714286, 3: 42.857142857142854, 6: 85.71428571428571, 7: 0, 8: 14.285714285714286, 14: 0}
	for streak, want := range cases {
		if got := StreakPercentage(streak); math.Abs(got-want) > 1e-9 {
			t.Errorf("StreakPercentage(%d): expected %v, got %v", streak, want, got)
		}
	}
}

type fakeStreakUsers struct {
	user        model.User
	breakCalls  int
	breakCutoff time.Time
	lapsed      int64
}

func (f *fakeStreakUsers) FindByID(ctx context.Context, id uint) (*model.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeStreakUsers) BreakStreak(ctx context.Context, userID uint, cutoff time.Time) (bool, error) {
	f.breakCalls++
	f.breakCutoff = cutoff
	if f.user.LastActivityDate != nil && f.user.LastActivityDate.Before(cutoff) {
		f.user.CurrentStreak = 0
		return true, nil
	}
	return false, nil
}

func (f *fakeStreakUsers) BreakLapsedStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	f.breakCutoff = cutoff
	return f.lapsed, nil
}

func TestStreakService_GetStatusIsReadOnly(t *testing.T) {
	last := day(10, 12)
	users := &fakeStreakUsers{user: model.User{CurrentStreak: 6, LongestStreak: 8, LastActivityDate: &last}}
	svc := NewStreakService(users)
	svc.Now = func() time.Time { return day(14, 9) }

	status, err := svc.GetStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if status.CurrentStreak != 0 || status.LongestStreak != 8 {
		t.Errorf("expected 0/8, got %d/%d", status.CurrentStreak, status.LongestStreak)
	}
	if users.breakCalls != 0 || users.user.CurrentStreak != 6 {
		t.Error("status read must not write the streak")
	}
}

func TestStreakService_ApplyStreakBreak(t *testing.T) {
	last := day(10, 12)
	users := &fakeStreakUsers{user: model.User{CurrentStreak: 6, LongestStreak: 8, LastActivityDate: &last}}
	svc := NewStreakService(users)

	broken, err := svc.ApplyStreakBreak(context.Background(), 1, day(11, 9))
	if err != nil || broken {
		t.Fatalf("streak still alive the next day, got broken=%v err=%v", broken, err)
	}
	if users.breakCalls != 0 {
		t.Error("no write expected while the streak is alive")
	}

	broken, err = svc.ApplyStreakBreak(context.Background(), 1, day(12, 9))
	if err != nil || !broken {
		t.Fatalf("expected the streak to break, got broken=%v err=%v", broken, err)
	}
	if want := day(11, 0); !users.breakCutoff.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, users.breakCutoff)
	}
	if users.user.CurrentStreak != 0 || users.user.LongestStreak != 8 {
		t.Errorf("expected 0/8 after break, got %d/%d", users.user.CurrentStreak, users.user.LongestStreak)
	}
}

func TestStreakService_BreakLapsedStreaks(t *testing.T) {
	users := &fakeStreakUsers{lapsed: 3}
	svc := NewStreakService(users)

	n, err := svc.BreakLapsedStreaks(context.Background(), day(20, 0))
	if err != nil {
		t.Fatalf("BreakLapsedStreaks failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
	if want := day(19, 0); !users.breakCutoff.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, users.breakCutoff)
	}
}
