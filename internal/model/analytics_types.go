package model

// PlanSummary 计划列表页的卡片统计
type PlanSummary struct {
	Plan       Plan  `json:"plan"`
	TotalCards int64 `json:"totalCards"`
	DueCards   int64 `json:"dueCards"`
	NewCards   int64 `json:"newCards"`
}

// PlanAnalytics 计划维度的复习统计
type PlanAnalytics struct {
	PlanID           uint                     `json:"planId"`
	TotalCards       int64                    `json:"totalCards"`
	MatureCards      int64                    `json:"matureCards"` // interval >= 21 天
	TotalReviews     int64                    `json:"totalReviews"`
	AccuracyRate     float64                  `json:"accuracyRate"`
	AverageEase      float64                  `json:"averageEase"`
	ResponseCounts   map[ReviewResponse]int64 `json:"responseCounts"`
	SessionsFinished int64                    `json:"sessionsFinished"`
}

// PlatformAnalytics 管理后台概览
type PlatformAnalytics struct {
	TotalUsers          int64 `json:"totalUsers"`
	OnboardedUsers      int64 `json:"onboardedUsers"`
	TotalContent        int64 `json:"totalContent"`
	ActivitiesLast7Days int64 `json:"activitiesLast7Days"`
	JournalEntries      int64 `json:"journalEntries"`
	MoodLogs            int64 `json:"moodLogs"`
	BadgesAwarded       int64 `json:"badgesAwarded"`
}
