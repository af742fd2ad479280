package model

// Goal 是平台预置的目标（如 "Reduce stress"），用户在引导流程中选择
type Goal struct {
	BaseModel
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

func (Goal) TableName() string {
	return "goals"
}

type UserGoal struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	GoalID uint `gorm:"primaryKey;autoIncrement:false" json:"goalId"`
	Goal   Goal `gorm:"foreignKey:GoalID" json:"goal"`
}

func (UserGoal) TableName() string {
	return "user_goals"
}

var DefaultGoals = []string{
	"Reduce stress",
	"Improve sleep",
	"Self-improvement",
	"Be more mindful",
	"Feel better",
}
