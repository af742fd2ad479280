package repository

import (
	"context"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

// RecentMessages 按时间倒序取最近的消息，before 为空时从最新开始
func (r *ChatRepository) RecentMessages(ctx context.Context, room, before string, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	q := r.DB.WithContext(ctx).Where("chat_room = ?", room)
	if before != "" {
		var pivot model.ChatMessage
		if err := r.DB.WithContext(ctx).Select("created_at").Where("id = ?", before).First(&pivot).Error; err != nil {
			return nil, err
		}
		q = q.Where("created_at < ?", pivot.CreatedAt)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

func (r *ChatRepository) ExistsClientMsg(ctx context.Context, senderID uint, clientMsgID string) (bool, error) {
	if clientMsgID == "" {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("sender_id = ? AND client_msg_id = ?", senderID, clientMsgID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepository) CountMessages(ctx context.Context, room string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ChatMessage{}).Where("chat_room = ?", room).Count(&count).Error
	return count, err
}

// RoomsForUser 用户发过言的房间及每个房间的最后一条消息
func (r *ChatRepository) RoomsForUser(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	var rooms []string
	if err := r.DB.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("sender_id = ?", userID).
		Distinct().Pluck("chat_room", &rooms).Error; err != nil {
		return nil, err
	}

	last := make([]model.ChatMessage, 0, len(rooms))
	for _, room := range rooms {
		var msg model.ChatMessage
		err := r.DB.WithContext(ctx).Where("chat_room = ?", room).Order("created_at DESC").First(&msg).Error
		if err != nil {
			continue
		}
		last = append(last, msg)
	}
	return last, nil
}
