package model

// JournalEntry 日记，SentimentScore 由后台任务异步填充（-1..1）
type JournalEntry struct {
	BaseModel
	UserID         uint     `gorm:"index;not null" json:"userId"`
	EntryText      string   `gorm:"type:text;not null" json:"entryText"`
	SentimentScore *float64 `gorm:"index" json:"sentimentScore"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
