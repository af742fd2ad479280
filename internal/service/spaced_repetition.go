package service

import (
	"math"
	"time"
	"uplook_backend/internal/model"
)

// 浮点乘法误差容忍度，避免 15.000000000000002 被向上取整成 16
const intervalEpsilon = 1e-9

// CalculateNextReview 根据作答等级计算卡片的下一次复习状态（SM-2 变体）。
// 纯函数：不修改入参，不做 I/O，调用方负责持久化和写作答记录。
func CalculateNextReview(card model.PlanCard, grade model.ReviewResponse, now time.Time) model.PlanCard {
	next := card

	switch grade {
	case model.ResponseAgain:
		next.EaseFactor = math.Max(model.MinEaseFactor, roundEase(card.EaseFactor-0.20))
		next.IntervalDays = 0
		next.Repetitions = 0
	case model.ResponseHard:
		next.EaseFactor = math.Max(model.MinEaseFactor, roundEase(card.EaseFactor-0.15))
		next.IntervalDays = growInterval(card.Repetitions, card.IntervalDays, 1, next.EaseFactor*0.8)
	case model.ResponseGood:
		next.IntervalDays = growInterval(card.Repetitions, card.IntervalDays, 1, card.EaseFactor)
		next.Repetitions = card.Repetitions + 1
	case model.ResponseEasy:
		next.EaseFactor = roundEase(card.EaseFactor + 0.15)
		next.IntervalDays = growInterval(card.Repetitions, card.IntervalDays, 4, next.EaseFactor*1.3)
		next.Repetitions = card.Repetitions + 1
	}

	due := now.AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.NextReviewDate = &due
	next.LastReviewedAt = &reviewed
	next.IsNew = false
	next.TimesReviewed = card.TimesReviewed + 1
	return next
}

func growInterval(repetitions, interval, first int, factor float64) int {
	switch repetitions {
	case 0:
		return first
	case 1:
		return 6
	default:
		return int(math.Ceil(float64(interval)*factor - intervalEpsilon))
	}
}

// ease 以两位小数存储
func roundEase(e float64) float64 {
	return math.Round(e*100) / 100
}

// IsCorrectResponse 默认判定：除 AGAIN 外都算答对
func IsCorrectResponse(grade model.ReviewResponse) bool {
	return grade != model.ResponseAgain
}
