package model

import "time"

// ActivityLog 一次内容完成记录，是连续打卡和热门排行的数据来源
type ActivityLog struct {
	BaseModel
	UserID      uint      `gorm:"index:idx_activity_user_time;not null" json:"userId"`
	ContentID   uint      `gorm:"index;not null" json:"contentId"`
	Content     *Content  `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	CompletedAt time.Time `gorm:"index:idx_activity_user_time;index" json:"completedAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ContentPopularity 近期完成次数聚合结果
type ContentPopularity struct {
	ContentID   uint  `json:"contentId"`
	Completions int64 `json:"completions"`
}
