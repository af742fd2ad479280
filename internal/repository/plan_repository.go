package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	DB *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{DB: db}
}

// CreateWithCards 计划和初始卡片一起写入
func (r *PlanRepository) CreateWithCards(ctx context.Context, plan *model.Plan, cards []model.PlanCard) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Cards").Create(plan).Error; err != nil {
			return err
		}
		for i := range cards {
			cards[i].PlanID = plan.ID
		}
		if len(cards) > 0 {
			if err := tx.Create(&cards).Error; err != nil {
				return err
			}
		}
		plan.Cards = cards
		return nil
	})
}

func (r *PlanRepository) ListByUser(ctx context.Context, userID uint) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, model.PlanArchived).
		Order("created_at DESC").
		Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) FindForUser(ctx context.Context, planID, userID uint) (*model.Plan, error) {
	var plan model.Plan
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) AddCards(ctx context.Context, cards []model.PlanCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&cards).Error
}

// NewCards 从未调度过的卡片，按创建顺序
func (r *PlanRepository) NewCards(ctx context.Context, planID uint, limit int) ([]model.PlanCard, error) {
	var cards []model.PlanCard
	if limit <= 0 {
		return cards, nil
	}
	err := r.DB.WithContext(ctx).
		Where("plan_id = ? AND is_new = ?", planID, true).
		Order("id ASC").
		Limit(limit).
		Find(&cards).Error
	return cards, err
}

// DueCards 已到期的非新卡片，最早到期的优先
func (r *PlanRepository) DueCards(ctx context.Context, planID uint, now time.Time, limit int) ([]model.PlanCard, error) {
	var cards []model.PlanCard
	if limit <= 0 {
		return cards, nil
	}
	err := r.DB.WithContext(ctx).
		Where("plan_id = ? AND is_new = ? AND next_review_date <= ?", planID, false, now).
		Order("next_review_date ASC, id ASC").
		Limit(limit).
		Find(&cards).Error
	return cards, err
}

func (r *PlanRepository) CountCards(ctx context.Context, planID uint, now time.Time) (total, due, fresh int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.PlanCard{})
	if err = db.Where("plan_id = ?", planID).Count(&total).Error; err != nil {
		return
	}
	if err = r.DB.WithContext(ctx).Model(&model.PlanCard{}).
		Where("plan_id = ? AND is_new = ? AND next_review_date <= ?", planID, false, now).
		Count(&due).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.PlanCard{}).
		Where("plan_id = ? AND is_new = ?", planID, true).
		Count(&fresh).Error
	return
}

func (r *PlanRepository) CreateSession(ctx context.Context, s *model.ReviewSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *PlanRepository) FindSessionForUser(ctx context.Context, sessionID, userID uint) (*model.ReviewSession, error) {
	var s model.ReviewSession
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PlanRepository) EndSession(ctx context.Context, s *model.ReviewSession) error {
	return r.DB.WithContext(ctx).Model(s).
		Select("ended_at", "session_duration_seconds").
		Updates(s).Error
}

// ReviewCard 锁住卡片做一次读-改-写：next 根据加锁后的最新状态计算，
// 同一事务内写入作答记录并累加会话和计划统计。
func (r *PlanRepository) ReviewCard(ctx context.Context, cardID, sessionID uint, next func(card model.PlanCard) (model.PlanCard, model.CardReview)) (*model.PlanCard, error) {
	var updated model.PlanCard
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ReviewSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}

		var card model.PlanCard
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND plan_id = ?", cardID, session.PlanID).
			First(&card).Error; err != nil {
			return err
		}

		var review model.CardReview
		updated, review = next(card)
		review.SessionID = sessionID
		review.CardID = card.ID

		if err := tx.Model(&updated).
			Select("ease_factor", "interval_days", "repetitions", "next_review_date", "last_reviewed_at",
				"is_new", "times_reviewed", "times_correct", "avg_response_sec").
			Updates(&updated).Error; err != nil {
			return err
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		correct := 0
		if review.WasCorrect {
			correct = 1
		}
		if err := tx.Model(&model.ReviewSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"total_cards_reviewed": gorm.Expr("total_cards_reviewed + 1"),
			"correct_answers":      gorm.Expr("correct_answers + ?", correct),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Plan{}).Where("id = ?", session.PlanID).
			Update("last_reviewed_at", updated.LastReviewedAt).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *PlanRepository) Analytics(ctx context.Context, planID uint) (*model.PlanAnalytics, error) {
	a := &model.PlanAnalytics{PlanID: planID, ResponseCounts: map[model.ReviewResponse]int64{}}
	db := r.DB.WithContext(ctx)

	var cardStats struct {
		Total   int64
		Mature  int64
		AvgEase float64
	}
	if err := db.Model(&model.PlanCard{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN interval_days >= 21 THEN 1 ELSE 0 END), 0) AS mature, COALESCE(AVG(ease_factor), 0) AS avg_ease").
		Where("plan_id = ?", planID).
		Scan(&cardStats).Error; err != nil {
		return nil, err
	}
	a.TotalCards = cardStats.Total
	a.MatureCards = cardStats.Mature
	a.AverageEase = cardStats.AvgEase

	var rows []struct {
		Response model.ReviewResponse
		Total    int64
		Correct  int64
	}
	if err := db.Model(&model.CardReview{}).
		Select("card_reviews.response AS response, COUNT(*) AS total, SUM(CASE WHEN card_reviews.was_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN plan_cards ON plan_cards.id = card_reviews.card_id").
		Where("plan_cards.plan_id = ?", planID).
		Group("card_reviews.response").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	var correct int64
	for _, row := range rows {
		a.ResponseCounts[row.Response] = row.Total
		a.TotalReviews += row.Total
		correct += row.Correct
	}
	if a.TotalReviews > 0 {
		a.AccuracyRate = float64(correct) / float64(a.TotalReviews) * 100
	}

	if err := db.Model(&model.ReviewSession{}).
		Where("plan_id = ? AND ended_at IS NOT NULL", planID).
		Count(&a.SessionsFinished).Error; err != nil {
		return nil, err
	}
	return a, nil
}
