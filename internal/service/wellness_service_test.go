package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	"uplook_backend/internal/model"
)

func signals(scores ...float64) []model.Signal {
	out := make([]model.Signal, len(scores))
	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range scores {
		out[i] = model.Signal{At: base.AddDate(0, 0, i), Score: s}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeWellness(t *testing.T) {
	cases := []struct {
		name      string
		sentiment []model.Signal
		mood      []model.Signal
		score     float64
		trend     string
	}{
		{"positive signals", signals(0.6), signals(0.8), 80, model.TrendImproving},
		{"no data is neutral", nil, nil, 50, model.TrendNeedsAttention},
		{"only mood", nil, signals(0.2, 0.4), 38, model.TrendNeedsAttention},
		{"only sentiment", signals(1, 1), nil, 70, model.TrendImproving},
		{"just below the threshold", nil, signals(0.65), 59, model.TrendNeedsAttention},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeWellness(tc.sentiment, tc.mood)
			if !approx(got.Score, tc.score) {
				t.Errorf("score: expected %v, got %v", tc.score, got.Score)
			}
			if got.Trend != tc.trend {
				t.Errorf("trend: expected %s, got %s", tc.trend, got.Trend)
			}
		})
	}
}

func TestPresentWellness_RoundsForDisplay(t *testing.T) {
	w := presentWellness(ComputeWellness(signals(0.123), signals(0.456)))
	if w.Score != round1(w.Score) || w.MoodComponent != 45.6 {
		t.Errorf("expected one decimal place, got %+v", w)
	}
}

func TestBuildInsights(t *testing.T) {
	if got := BuildInsights(nil, nil); len(got) != 1 || got[0] != "Keep logging your activities to get personalized insights!" {
		t.Errorf("unexpected fallback insight: %v", got)
	}

	got := BuildInsights(signals(0.5), signals(0.2))
	if len(got) != 2 {
		t.Fatalf("expected two insights, got %v", got)
	}
	if got[0] != "Your journal entries show a positive emotional trend this week!" {
		t.Errorf("unexpected sentiment insight: %s", got[0])
	}
	if got[1] != "Your biometric data suggests elevated stress levels. Consider meditation or relaxation exercises." {
		t.Errorf("unexpected mood insight: %s", got[1])
	}
}

type fakeSignals struct {
	sentiment []model.Signal
	mood      []model.Signal
	err       error
	since     time.Time
}

func (f *fakeSignals) SentimentSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error) {
	f.since = since
	return f.sentiment, f.err
}

func (f *fakeSignals) MoodSignals(ctx context.Context, userID uint, since time.Time) ([]model.Signal, error) {
	f.since = since
	return f.mood, f.err
}

func TestWellnessService_SnapshotTreatsErrorsAsMissingData(t *testing.T) {
	src := &fakeSignals{sentiment: signals(0.9), mood: signals(0.9), err: errors.New("db down")}
	svc := NewWellnessService(src, src)

	snap := svc.Snapshot(context.Background(), 1, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC))
	if !approx(snap.Score.Score, 50) {
		t.Errorf("expected neutral 50, got %v", snap.Score.Score)
	}
	if snap.Sentiment != nil || snap.Mood != nil {
		t.Error("signals should be dropped on error")
	}
	if want := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC); !src.since.Equal(want) {
		t.Errorf("expected 7 day window from %v, got %v", want, src.since)
	}
}
