package model

import (
	"encoding/json"
	"time"
)

// MoodLog 心情记录，CalculatedMoodScore 已归一化到 0..1
type MoodLog struct {
	BaseModel
	UserID              uint            `gorm:"index:idx_mood_user_time;not null" json:"userId"`
	Timestamp           time.Time       `gorm:"index:idx_mood_user_time" json:"timestamp"`
	RawSensorData       json.RawMessage `gorm:"type:json" json:"rawSensorData"`
	CalculatedMoodScore *float64        `json:"calculatedMoodScore"`
}

func (MoodLog) TableName() string {
	return "mood_logs"
}

// WearableMetrics 手表同步上来的原始指标，字段都可缺省
type WearableMetrics struct {
	HeartRate     *float64 `json:"heartRate"`
	HRV           *float64 `json:"hrv"`
	StressLevel   *float64 `json:"stressLevel"`
	SleepQuality  *float64 `json:"sleepQuality"`
	ActivityLevel *float64 `json:"activityLevel"`
}

// Signal 按时间排序的一条情绪信号
type Signal struct {
	At    time.Time `json:"date"`
	Score float64   `json:"score"`
}
