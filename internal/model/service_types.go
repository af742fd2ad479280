package model

import "time"

// 推荐优先级，数字越小越靠前
const (
	PriorityUrgent  = 1
	PriorityGoal    = 2
	PriorityPopular = 3
	PriorityExplore = 4
)

const (
	TrendImproving      = "improving"
	TrendNeedsAttention = "needs_attention"
)

// RecommendationCandidate 一次排序调用的结果条目，不落库
type RecommendationCandidate struct {
	Content  Content `json:"content"`
	Reason   string  `json:"reason"`
	Priority int     `json:"priority"`
}

type WellnessScore struct {
	Score              float64 `json:"wellnessScore"`
	Trend              string  `json:"trend"`
	SentimentComponent float64 `json:"sentimentComponent"`
	MoodComponent      float64 `json:"moodComponent"`
	SentimentSamples   int     `json:"sentimentSamples"`
	MoodSamples        int     `json:"moodSamples"`
}

type StreakStatus struct {
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	StreakPercentage float64    `json:"streakPercentage"`
}

type DailyWrapUp struct {
	WellnessScore           float64 `json:"wellnessScore"`
	Trend                   string  `json:"trend"`
	CompletedActivitiesWeek int64   `json:"completedActivitiesWeek"`
}

type ProgressSummary struct {
	WeeklyActivities int64  `json:"weeklyActivities"`
	WellnessTrend    string `json:"wellnessTrend"`
	NextMilestone    string `json:"nextMilestone"`
	CurrentStreak    int    `json:"currentStreak"`
	LongestStreak    int    `json:"longestStreak"`
}

type DailyAgenda struct {
	DailyWrapUp     DailyWrapUp               `json:"dailyWrapUp"`
	TodaysAgenda    []RecommendationCandidate `json:"todaysAgenda"`
	ProgressSummary ProgressSummary           `json:"progressSummary"`
}

// CompletionResult 记录完成后的结构化结果，写库失败时 Success=false
type CompletionResult struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Streak    int         `json:"streak"`
	NewBadges []BadgeType `json:"newBadges"`
}

type WellnessInsights struct {
	Score    WellnessScore `json:"score"`
	Insights []string      `json:"insights"`
}
