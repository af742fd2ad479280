package service

import (
	"context"
	"fmt"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	agendaSize     = 4
	weeklyGoal     = 5
	weeklyStretch  = 10
	agendaWeekDays = 7
)

type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// AgendaService 组合健康分、推荐和进度为首页议程，只读
type AgendaService struct {
	Users       UserLookup
	Wellness    *WellnessService
	Recommender *RecommendationService
	History     ActivityHistory
	Now         func() time.Time
}

func NewAgendaService(users UserLookup, wellness *WellnessService, recommender *RecommendationService, history ActivityHistory) *AgendaService {
	return &AgendaService{
		Users:       users,
		Wellness:    wellness,
		Recommender: recommender,
		History:     history,
		Now:         time.Now,
	}
}

func (s *AgendaService) GetDailyAgenda(ctx context.Context, userID uint) (*model.DailyAgenda, error) {
	ctx, span := tracing.StartSpan(ctx, "agenda.GetDailyAgenda", userID)
	defer span.End()

	now := s.Now()
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := s.Wellness.Snapshot(ctx, userID, now)
	recs, err := s.Recommender.Recommend(ctx, userID, snap, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rank recommendations: %w", err)
	}
	if len(recs) > agendaSize {
		recs = recs[:agendaSize]
	}

	weekly, err := s.History.CountCompletions(ctx, userID, now.AddDate(0, 0, -agendaWeekDays))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count weekly completions: %w", err)
	}

	score := presentWellness(snap.Score)
	span.SetAttributes(
		attribute.Float64("wellness.score", score.Score),
		attribute.Int("agenda.items", len(recs)),
	)

	return &model.DailyAgenda{
		DailyWrapUp: model.DailyWrapUp{
			WellnessScore:           score.Score,
			Trend:                   score.Trend,
			CompletedActivitiesWeek: weekly,
		},
		TodaysAgenda: recs,
		ProgressSummary: model.ProgressSummary{
			WeeklyActivities: weekly,
			WellnessTrend:    score.Trend,
			NextMilestone:    NextMilestone(weekly),
			CurrentStreak:    EffectiveStreak(user.Streak(), now),
			LongestStreak:    user.LongestStreak,
		},
	}, nil
}

// NextMilestone 本周完成数对应的里程碑提示
func NextMilestone(completed int64) string {
	switch {
	case completed < weeklyGoal:
		return fmt.Sprintf("Complete %d more activities to reach your weekly goal!", weeklyGoal-completed)
	case completed < weeklyStretch:
		return fmt.Sprintf("Great progress! %d more activities to achieve your stretch goal!", weeklyStretch-completed)
	default:
		return "Excellent work! You've exceeded your weekly goals!"
	}
}
