package model

import (
	"time"
)

type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name             string     `gorm:"size:100" json:"name"`
	Email            string     `gorm:"size:100;unique;not null" json:"email"`
	Password         string     `gorm:"size:100;not null" json:"-"`
	Age              *int       `json:"age,omitempty"`
	Role             UserRole   `gorm:"type:enum('user','admin','super_admin');default:'user'" json:"role"`
	Onboarded        bool       `gorm:"default:false" json:"onboarded"`
	Disabled         bool       `gorm:"default:false" json:"disabled"`
	CurrentStreak    int        `gorm:"default:0" json:"currentStreak"`
	LongestStreak    int        `gorm:"default:0" json:"longestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	LastLogin        *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// StreakState 连续打卡状态，存放在 users 表上
type StreakState struct {
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate *time.Time
}

func (u *User) Streak() StreakState {
	return StreakState{
		CurrentStreak:    u.CurrentStreak,
		LongestStreak:    u.LongestStreak,
		LastActivityDate: u.LastActivityDate,
	}
}

func (u *User) SetStreak(s StreakState) {
	u.CurrentStreak = s.CurrentStreak
	u.LongestStreak = s.LongestStreak
	u.LastActivityDate = s.LastActivityDate
}
