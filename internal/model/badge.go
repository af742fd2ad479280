package model

import "time"

type BadgeType string

const (
	BadgeWeeklyStreak     BadgeType = "weekly_streak"
	BadgeMonthlyStreak    BadgeType = "monthly_streak"
	BadgeYearlyStreak     BadgeType = "yearly_streak"
	BadgeMeditationMaster BadgeType = "meditation_master"
	BadgeFitnessChampion  BadgeType = "fitness_champion"
	BadgeSleepExpert      BadgeType = "sleep_expert"
	BadgeStressWarrior    BadgeType = "stress_warrior"
)

// StreakBadgeTypes 按连续天数判定的徽章
var StreakBadgeTypes = []BadgeType{BadgeWeeklyStreak, BadgeMonthlyStreak, BadgeYearlyStreak}

func (t BadgeType) IsStreak() bool {
	for _, s := range StreakBadgeTypes {
		if s == t {
			return true
		}
	}
	return false
}

// swagger:model Badge
type Badge struct {
	BaseModel
	Name             string    `gorm:"size:100;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	BadgeType        BadgeType `gorm:"size:32;uniqueIndex;not null" json:"badgeType"`
	IconURL          string    `gorm:"size:500" json:"iconUrl"`
	RequirementValue int       `gorm:"default:0" json:"requirementValue"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge 每个 (user, badge) 至多一行，未完成时记录进度
type UserBadge struct {
	BaseModel
	UserID      uint       `gorm:"uniqueIndex:idx_user_badge;not null" json:"userId"`
	BadgeID     uint       `gorm:"uniqueIndex:idx_user_badge;not null" json:"badgeId"`
	Badge       Badge      `gorm:"foreignKey:BadgeID" json:"badge"`
	Progress    int        `gorm:"default:0" json:"progress"`
	IsCompleted bool       `gorm:"default:false" json:"isCompleted"`
	EarnedAt    *time.Time `json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// DefaultBadges 启动时按 badge_type 补齐
var DefaultBadges = []Badge{
	{Name: "Weekly Warrior", Description: "Complete activities for 7 consecutive days", BadgeType: BadgeWeeklyStreak, RequirementValue: 7},
	{Name: "Monthly Master", Description: "Complete activities for 30 consecutive days", BadgeType: BadgeMonthlyStreak, RequirementValue: 30},
	{Name: "Yearly Champion", Description: "Complete activities for 365 consecutive days", BadgeType: BadgeYearlyStreak, RequirementValue: 365},
	{Name: "Meditation Master", Description: "Complete 50 meditation sessions", BadgeType: BadgeMeditationMaster, RequirementValue: 50},
	{Name: "Fitness Champion", Description: "Complete 100 exercise activities", BadgeType: BadgeFitnessChampion, RequirementValue: 100},
	{Name: "Sleep Expert", Description: "Complete 30 sleep-related activities", BadgeType: BadgeSleepExpert, RequirementValue: 30},
	{Name: "Stress Warrior", Description: "Complete 25 stress management activities", BadgeType: BadgeStressWarrior, RequirementValue: 25},
}
