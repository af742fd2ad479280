package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
	"uplook_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// 每次取卡最多放入的新卡数量，避免新卡挤占到期复习
const newCardCap = 10

type PlanStore interface {
	CreateWithCards(ctx context.Context, plan *model.Plan, cards []model.PlanCard) error
	ListByUser(ctx context.Context, userID uint) ([]model.Plan, error)
	FindForUser(ctx context.Context, planID, userID uint) (*model.Plan, error)
	AddCards(ctx context.Context, cards []model.PlanCard) error
	NewCards(ctx context.Context, planID uint, limit int) ([]model.PlanCard, error)
	DueCards(ctx context.Context, planID uint, now time.Time, limit int) ([]model.PlanCard, error)
	CountCards(ctx context.Context, planID uint, now time.Time) (total, due, fresh int64, err error)
	CreateSession(ctx context.Context, s *model.ReviewSession) error
	FindSessionForUser(ctx context.Context, sessionID, userID uint) (*model.ReviewSession, error)
	EndSession(ctx context.Context, s *model.ReviewSession) error
	ReviewCard(ctx context.Context, cardID, sessionID uint, next func(card model.PlanCard) (model.PlanCard, model.CardReview)) (*model.PlanCard, error)
	Analytics(ctx context.Context, planID uint) (*model.PlanAnalytics, error)
}

type CardInput struct {
	ContentID     *uint  `json:"contentId"`
	FrontText     string `json:"frontText" binding:"required_without=ContentID"`
	BackText      string `json:"backText"`
	FrontImageURL string `json:"frontImageUrl"`
	BackImageURL  string `json:"backImageUrl"`
	AudioURL      string `json:"audioUrl"`
}

type CreatePlanInput struct {
	Title              string         `json:"title" binding:"required,max=255"`
	Description        string         `json:"description"`
	Category           model.Category `json:"category" binding:"required,oneof=sleep anxiety self_confidence work"`
	TargetDailyReviews int            `json:"targetDailyReviews" binding:"omitempty,min=1,max=500"`
	Cards              []CardInput    `json:"cards" binding:"dive"`
}

// ReviewInput 一次作答；WasCorrect 为空时按等级推断
type ReviewInput struct {
	CardID          uint                 `json:"cardId" binding:"required"`
	Response        model.ReviewResponse `json:"response" binding:"required,review_grade"`
	ResponseTime    float64              `json:"responseTimeSeconds" binding:"min=0"`
	WasCorrect      *bool                `json:"wasCorrect"`
	ConfidenceLevel *int                 `json:"confidenceLevel" binding:"omitempty,min=1,max=5"`
}

type PlanService struct {
	Plans    PlanStore
	DueLimit int
	Now      func() time.Time
}

func NewPlanService(plans PlanStore, dueLimit int) *PlanService {
	return &PlanService{Plans: plans, DueLimit: dueLimit, Now: time.Now}
}

func (s *PlanService) CreatePlan(ctx context.Context, userID uint, in CreatePlanInput) (*model.Plan, error) {
	target := in.TargetDailyReviews
	if target == 0 {
		target = 20
	}
	plan := &model.Plan{
		UserID:             userID,
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Status:             model.PlanActive,
		TargetDailyReviews: target,
	}
	if err := s.Plans.CreateWithCards(ctx, plan, buildCards(0, in.Cards)); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) AddCards(ctx context.Context, userID, planID uint, inputs []CardInput) ([]model.PlanCard, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	cards := buildCards(planID, inputs)
	if err := s.Plans.AddCards(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func buildCards(planID uint, inputs []CardInput) []model.PlanCard {
	cards := make([]model.PlanCard, 0, len(inputs))
	for _, in := range inputs {
		card := model.NewPlanCard(planID)
		card.ContentID = in.ContentID
		card.FrontText = in.FrontText
		card.BackText = in.BackText
		card.FrontImageURL = in.FrontImageURL
		card.BackImageURL = in.BackImageURL
		card.AudioURL = in.AudioURL
		cards = append(cards, card)
	}
	return cards
}

func (s *PlanService) ListPlans(ctx context.Context, userID uint) ([]model.PlanSummary, error) {
	plans, err := s.Plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	summaries := make([]model.PlanSummary, 0, len(plans))
	for _, p := range plans {
		total, due, fresh, err := s.Plans.CountCards(ctx, p.ID, now)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, model.PlanSummary{Plan: p, TotalCards: total, DueCards: due, NewCards: fresh})
	}
	return summaries, nil
}

func (s *PlanService) ownedPlan(ctx context.Context, userID, planID uint) (*model.Plan, error) {
	plan, err := s.Plans.FindForUser(ctx, planID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPlanNotFound
	}
	return plan, err
}

// GetDueCards 先取至多 min(limit, 10) 张新卡，再用剩余额度取已到期的卡，新卡在前
func (s *PlanService) GetDueCards(ctx context.Context, planID uint, limit int) ([]model.PlanCard, error) {
	if limit <= 0 {
		limit = s.DueLimit
	}
	fresh, err := s.Plans.NewCards(ctx, planID, min(limit, newCardCap))
	if err != nil {
		return nil, fmt.Errorf("load new cards: %w", err)
	}
	due, err := s.Plans.DueCards(ctx, planID, s.Now(), limit-len(fresh))
	if err != nil {
		return nil, fmt.Errorf("load due cards: %w", err)
	}
	return append(fresh, due...), nil
}

func (s *PlanService) DueCardsForUser(ctx context.Context, userID, planID uint, limit int) ([]model.PlanCard, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.GetDueCards(ctx, planID, limit)
}

func (s *PlanService) StartSession(ctx context.Context, userID, planID uint) (*model.ReviewSession, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	session := &model.ReviewSession{UserID: userID, PlanID: planID, StartedAt: s.Now()}
	if err := s.Plans.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PlanService) EndSession(ctx context.Context, userID, sessionID uint) (*model.ReviewSession, error) {
	session, err := s.openSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	ended := s.Now()
	duration := int(ended.Sub(session.StartedAt).Seconds())
	session.EndedAt = &ended
	session.DurationSeconds = &duration
	if err := s.Plans.EndSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PlanService) openSession(ctx context.Context, userID, sessionID uint) (*model.ReviewSession, error) {
	session, err := s.Plans.FindSessionForUser(ctx, sessionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return nil, util.ErrSessionEnded
	}
	return session, nil
}

// SubmitReview 计算卡片下一状态并与作答记录一起落库
func (s *PlanService) SubmitReview(ctx context.Context, userID, sessionID uint, in ReviewInput) (*model.PlanCard, error) {
	if _, err := s.openSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	now := s.Now()
	correct := IsCorrectResponse(in.Response)
	if in.WasCorrect != nil {
		correct = *in.WasCorrect
	}

	card, err := s.Plans.ReviewCard(ctx, in.CardID, sessionID, func(card model.PlanCard) (model.PlanCard, model.CardReview) {
		next := CalculateNextReview(card, in.Response, now)
		if correct {
			next.TimesCorrect = card.TimesCorrect + 1
		}
		next.AvgResponseSec = runningAverage(card.AvgResponseSec, card.TimesReviewed, in.ResponseTime)

		return next, model.CardReview{
			Response:            in.Response,
			ResponseTimeSeconds: in.ResponseTime,
			WasCorrect:          correct,
			ConfidenceLevel:     in.ConfidenceLevel,
			PreviousEaseFactor:  card.EaseFactor,
			PreviousInterval:    card.IntervalDays,
		}
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	monitoring.ReviewCounter.WithLabelValues(string(in.Response)).Inc()
	return card, nil
}

func runningAverage(prev *float64, n int, sample float64) *float64 {
	avg := sample
	if prev != nil && n > 0 {
		avg = (*prev*float64(n) + sample) / float64(n+1)
	}
	return &avg
}

func (s *PlanService) Analytics(ctx context.Context, userID, planID uint) (*model.PlanAnalytics, error) {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.Plans.Analytics(ctx, planID)
}
