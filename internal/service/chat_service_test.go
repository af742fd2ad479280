package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"uplook_backend/internal/model"
)

type fakeChatStore struct {
	msgs []model.ChatMessage
}

func (f *fakeChatStore) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	msg.CreatedAt = time.Date(2024, 1, 1, 0, len(f.msgs), 0, 0, time.UTC)
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeChatStore) RecentMessages(ctx context.Context, room, before string, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for i := len(f.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.msgs[i].ChatRoom == room {
			out = append(out, f.msgs[i])
		}
	}
	return out, nil
}

func (f *fakeChatStore) ExistsClientMsg(ctx context.Context, senderID uint, clientMsgID string) (bool, error) {
	if clientMsgID == "" {
		return false, nil
	}
	for _, m := range f.msgs {
		if m.SenderID == senderID && m.ClientMsgID == clientMsgID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChatStore) CountMessages(ctx context.Context, room string) (int64, error) {
	var n int64
	for _, m := range f.msgs {
		if m.ChatRoom == room {
			n++
		}
	}
	return n, nil
}

func (f *fakeChatStore) RoomsForUser(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	return nil, nil
}

func TestChatService_PostMessageAndHistory(t *testing.T) {
	store := &fakeChatStore{}
	svc := NewChatService(store)
	ctx := context.Background()
	alice := &model.User{Name: "Alice"}
	alice.ID = 1

	for i, text := range []string{"hi", "how is everyone sleeping?", "better lately"} {
		if _, dup, err := svc.PostMessage(ctx, "sleep", alice, text, string(rune('a'+i))); err != nil || dup {
			t.Fatalf("PostMessage failed: dup=%v err=%v", dup, err)
		}
	}
	if _, _, err := svc.PostMessage(ctx, "work", alice, "off topic", ""); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	msg, dup, err := svc.PostMessage(ctx, "sleep", alice, "hi", "a")
	if err != nil || !dup || msg != nil {
		t.Errorf("resend with the same client id should be a duplicate, got %v %v %v", msg, dup, err)
	}

	if _, _, err := svc.PostMessage(ctx, "sleep", alice, "   ", ""); err != ErrEmptyMessage {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}

	history, err := svc.History(ctx, "sleep", "", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[0].Message != "how is everyone sleeping?" || history[1].Message != "better lately" {
		t.Errorf("expected the last two messages oldest first, got %+v", history)
	}
	if history[0].SenderName != "Alice" {
		t.Errorf("sender name should be stored, got %q", history[0].SenderName)
	}

	info, err := svc.RoomInfo(ctx, "sleep", NewChatHub(nil, svc))
	if err != nil || info.MessageCount != 3 || info.ActiveConnections != 0 {
		t.Errorf("unexpected room info %+v (%v)", info, err)
	}
}

func TestChatService_TruncatesLongMessages(t *testing.T) {
	store := &fakeChatStore{}
	svc := NewChatService(store)
	u := &model.User{}
	u.ID = 2

	msg, _, err := svc.PostMessage(context.Background(), "r", u, strings.Repeat("x", maxChatMessageLen+50), "")
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if len(msg.Message) != maxChatMessageLen {
		t.Errorf("expected %d chars, got %d", maxChatMessageLen, len(msg.Message))
	}
}
