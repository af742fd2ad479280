package model

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage 聊天室消息，id 使用 uuid 便于多实例写入
type ChatMessage struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChatRoom    string    `gorm:"size:100;index:idx_room_created;not null" json:"chatRoom"`
	CreatedAt   time.Time `gorm:"index:idx_room_created" json:"createdAt"`
	SenderID    uint      `gorm:"index;not null" json:"senderId"`
	SenderName  string    `gorm:"size:100" json:"senderName"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	ClientMsgID string    `gorm:"size:50;index" json:"clientMsgId"` // 用于识别重复消息
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = GenerateUUID()
	}
	return nil
}
