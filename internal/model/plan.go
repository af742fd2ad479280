package model

import (
	"fmt"
	"strings"
	"time"
)

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
)

type CardDifficulty string

const (
	DifficultyEasy   CardDifficulty = "easy"
	DifficultyMedium CardDifficulty = "medium"
	DifficultyHard   CardDifficulty = "hard"
)

// ReviewResponse 用户对复习卡片的自评
type ReviewResponse string

const (
	ResponseAgain ReviewResponse = "again"
	ResponseHard  ReviewResponse = "hard"
	ResponseGood  ReviewResponse = "good"
	ResponseEasy  ReviewResponse = "easy"
)

func ParseReviewResponse(s string) (ReviewResponse, error) {
	switch r := ReviewResponse(strings.ToLower(strings.TrimSpace(s))); r {
	case ResponseAgain, ResponseHard, ResponseGood, ResponseEasy:
		return r, nil
	default:
		return "", fmt.Errorf("unknown review response %q", s)
	}
}

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// swagger:model Plan
type Plan struct {
	BaseModel
	UserID                  uint       `gorm:"index;not null" json:"userId"`
	Title                   string     `gorm:"size:255;not null" json:"title"`
	Description             string     `gorm:"type:text" json:"description"`
	Category                Category   `gorm:"size:32;not null" json:"category"`
	Status                  PlanStatus `gorm:"type:enum('active','paused','completed','archived');default:'active'" json:"status"`
	TargetDailyReviews      int        `gorm:"default:20" json:"targetDailyReviews"`
	EstimatedCompletionDays *int       `json:"estimatedCompletionDays,omitempty"`
	LastReviewedAt          *time.Time `json:"lastReviewedAt"`
	Cards                   []PlanCard `gorm:"foreignKey:PlanID" json:"cards,omitempty"`
}

func (Plan) TableName() string {
	return "plans"
}

// PlanCard 计划中的一张复习卡片，保存间隔重复的调度状态
// swagger:model PlanCard
type PlanCard struct {
	BaseModel
	PlanID         uint           `gorm:"index:idx_card_plan_due;not null" json:"planId"`
	ContentID      *uint          `gorm:"index" json:"contentId,omitempty"`
	FrontText      string         `gorm:"type:text" json:"frontText"`
	BackText       string         `gorm:"type:text" json:"backText"`
	FrontImageURL  string         `gorm:"size:500" json:"frontImageUrl"`
	BackImageURL   string         `gorm:"size:500" json:"backImageUrl"`
	AudioURL       string         `gorm:"size:500" json:"audioUrl"`
	EaseFactor     float64        `gorm:"default:2.5" json:"easeFactor"`
	IntervalDays   int            `gorm:"default:1" json:"intervalDays"`
	Repetitions    int            `gorm:"default:0" json:"repetitions"`
	NextReviewDate *time.Time     `gorm:"index:idx_card_plan_due" json:"nextReviewDate"`
	LastReviewedAt *time.Time     `json:"lastReviewedAt"`
	Difficulty     CardDifficulty `gorm:"type:enum('easy','medium','hard');default:'medium'" json:"difficulty"`
	IsNew          bool           `gorm:"default:true;index" json:"isNew"`
	TimesReviewed  int            `gorm:"default:0" json:"timesReviewed"`
	TimesCorrect   int            `gorm:"default:0" json:"timesCorrect"`
	AvgResponseSec *float64       `json:"averageResponseTime,omitempty"`
}

func (PlanCard) TableName() string {
	return "plan_cards"
}

// NewPlanCard 返回一张未调度过的新卡片
func NewPlanCard(planID uint) PlanCard {
	return PlanCard{
		PlanID:       planID,
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 1,
		Difficulty:   DifficultyMedium,
		IsNew:        true,
	}
}

type ReviewSession struct {
	BaseModel
	UserID             uint       `gorm:"index;not null" json:"userId"`
	PlanID             uint       `gorm:"index;not null" json:"planId"`
	StartedAt          time.Time  `json:"startedAt"`
	EndedAt            *time.Time `json:"endedAt"`
	TotalCardsReviewed int        `gorm:"default:0" json:"totalCardsReviewed"`
	CorrectAnswers     int        `gorm:"default:0" json:"correctAnswers"`
	DurationSeconds    *int       `json:"sessionDurationSeconds,omitempty"`
}

func (ReviewSession) TableName() string {
	return "review_sessions"
}

// CardReview 一次作答记录，保存作答前的 ease/interval 供分析使用
type CardReview struct {
	BaseModel
	SessionID           uint           `gorm:"index;not null" json:"sessionId"`
	CardID              uint           `gorm:"index;not null" json:"cardId"`
	Response            ReviewResponse `gorm:"type:enum('again','hard','good','easy');not null" json:"response"`
	ResponseTimeSeconds float64        `gorm:"not null" json:"responseTimeSeconds"`
	WasCorrect          bool           `gorm:"not null" json:"wasCorrect"`
	ConfidenceLevel     *int           `json:"confidenceLevel,omitempty"`
	PreviousEaseFactor  float64        `json:"previousEaseFactor"`
	PreviousInterval    int            `json:"previousInterval"`
}

func (CardReview) TableName() string {
	return "card_reviews"
}
