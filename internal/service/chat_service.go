package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"uplook_backend/internal/model"
)

const maxChatMessageLen = 2000

var ErrEmptyMessage = errors.New("message is empty")

type ChatStore interface {
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	RecentMessages(ctx context.Context, room, before string, limit int) ([]model.ChatMessage, error)
	ExistsClientMsg(ctx context.Context, senderID uint, clientMsgID string) (bool, error)
	CountMessages(ctx context.Context, room string) (int64, error)
	RoomsForUser(ctx context.Context, userID uint) ([]model.ChatMessage, error)
}

type RoomInfo struct {
	ChatRoom          string `json:"chatRoom"`
	MessageCount      int64  `json:"messageCount"`
	ActiveConnections int    `json:"activeConnections"`
}

type RoomSummary struct {
	RoomName     string     `json:"roomName"`
	LastMessage  string     `json:"lastMessage"`
	LastActivity *time.Time `json:"lastActivity"`
}

type ChatService struct {
	Store ChatStore
}

func NewChatService(store ChatStore) *ChatService {
	return &ChatService{Store: store}
}

// PostMessage 保存一条房间消息，同一 clientMsgId 重发时返回 duplicate=true 且不再落库
func (s *ChatService) PostMessage(ctx context.Context, room string, sender *model.User, text, clientMsgID string) (*model.ChatMessage, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, ErrEmptyMessage
	}
	if len([]rune(text)) > maxChatMessageLen {
		text = string([]rune(text)[:maxChatMessageLen])
	}

	dup, err := s.Store.ExistsClientMsg(ctx, sender.ID, clientMsgID)
	if err != nil {
		return nil, false, err
	}
	if dup {
		return nil, true, nil
	}

	msg := &model.ChatMessage{
		ChatRoom:    room,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		Message:     text,
		ClientMsgID: clientMsgID,
	}
	if err := s.Store.CreateMessage(ctx, msg); err != nil {
		return nil, false, err
	}
	return msg, false, nil
}

// History 返回按时间正序排列的最近消息
func (s *ChatService) History(ctx context.Context, room, before string, limit int) ([]model.ChatMessage, error) {
	msgs, err := s.Store.RecentMessages(ctx, room, before, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

func (s *ChatService) RoomInfo(ctx context.Context, room string, hub *ChatHub) (*RoomInfo, error) {
	count, err := s.Store.CountMessages(ctx, room)
	if err != nil {
		return nil, err
	}
	info := &RoomInfo{ChatRoom: room, MessageCount: count}
	if hub != nil {
		info.ActiveConnections = hub.RoomSize(room)
	}
	return info, nil
}

func (s *ChatService) UserRooms(ctx context.Context, userID uint) ([]RoomSummary, error) {
	last, err := s.Store.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms := make([]RoomSummary, 0, len(last))
	for i := range last {
		at := last[i].CreatedAt
		rooms = append(rooms, RoomSummary{
			RoomName:     last[i].ChatRoom,
			LastMessage:  last[i].Message,
			LastActivity: &at,
		})
	}
	return rooms, nil
}
