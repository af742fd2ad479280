package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"
	"uplook_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	chatChannel    = "chat:rooms"
)

const (
	WSTypeMessage = "MESSAGE"
	WSTypeError   = "ERROR"
)

var inboundPool = sync.Pool{
	New: func() interface{} {
		return &inboundMessage{}
	},
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type inboundMessage struct {
	Message     string `json:"message"`
	ClientMsgID string `json:"clientMsgId"`
}

func (m *inboundMessage) reset() {
	m.Message = ""
	m.ClientMsgID = ""
}

type roomEnvelope struct {
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

type Client struct {
	Hub     *ChatHub
	Conn    *websocket.Conn
	Send    chan []byte
	User    model.User
	Room    string
	Limiter *rate.Limiter
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.User.ID))
			}
			break
		}

		// 每秒最多 5 条，允许突发 10 条
		if !c.Limiter.Allow() {
			continue
		}

		in := inboundPool.Get().(*inboundMessage)
		in.reset()
		if err := json.Unmarshal(raw, in); err != nil {
			inboundPool.Put(in)
			c.sendError("Invalid JSON format")
			continue
		}
		c.Hub.handleInbound(c, in.Message, in.ClientMsgID)
		inboundPool.Put(in)
	}
}

func (c *Client) sendError(text string) {
	payload, _ := json.Marshal(WSMessage{Type: WSTypeError, Data: map[string]string{"error": text}})
	select {
	case c.Send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ChatHub 按房间管理连接；配置了 Redis 时广播经由 pub/sub 以支持多实例
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	Redis *redis.Client
	Chat  *ChatService
}

func NewChatHub(rdb *redis.Client, chat *ChatService) *ChatHub {
	return &ChatHub{
		rooms: make(map[string]map[*Client]struct{}),
		Redis: rdb,
		Chat:  chat,
	}
}

// Run 订阅跨实例广播，直到 ctx 结束
func (h *ChatHub) Run(ctx context.Context) {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(ctx, chatChannel)
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				var env roomEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.deliver(env.Room, env.Payload)
			}
		}()
	}

	<-ctx.Done()
	h.Stop()
}

func (h *ChatHub) add(client *Client) {
	h.mu.Lock()
	if h.rooms[client.Room] == nil {
		h.rooms[client.Room] = make(map[*Client]struct{})
	}
	h.rooms[client.Room][client] = struct{}{}
	h.mu.Unlock()
	monitoring.ChatOnlineClients.Inc()
}

func (h *ChatHub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[client.Room]
	if !ok {
		return
	}
	if _, ok := members[client]; !ok {
		return
	}
	delete(members, client)
	close(client.Send)
	if len(members) == 0 {
		delete(h.rooms, client.Room)
	}
	monitoring.ChatOnlineClients.Dec()
}

func (h *ChatHub) handleInbound(c *Client, text, clientMsgID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, dup, err := h.Chat.PostMessage(ctx, c.Room, &c.User, text, clientMsgID)
	if err != nil {
		if err != ErrEmptyMessage {
			logger.Log.Error("Failed to save chat message", zap.Error(err), zap.String("room", c.Room))
		}
		c.sendError("Error processing message: " + err.Error())
		return
	}
	if dup {
		return
	}
	h.Broadcast(ctx, c.Room, WSMessage{Type: WSTypeMessage, Data: msg})
}

// Broadcast 推送到房间内所有连接
func (h *ChatHub) Broadcast(ctx context.Context, room string, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if h.Redis == nil {
		h.deliver(room, payload)
		return
	}
	env, _ := json.Marshal(roomEnvelope{Room: room, Payload: payload})
	if err := h.Redis.Publish(ctx, chatChannel, env).Err(); err != nil {
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
		h.deliver(room, payload)
	}
}

func (h *ChatHub) deliver(room string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *ChatHub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Stop 关闭所有连接
func (h *ChatHub) Stop() {
	h.mu.Lock()
	closed := 0
	for room, members := range h.rooms {
		for client := range members {
			close(client.Send)
			closed++
		}
		delete(h.rooms, room)
	}
	h.mu.Unlock()

	monitoring.ChatOnlineClients.Set(0)
	logger.Log.Info("ChatHub stopped", zap.Int("closedConnections", closed))
}

func ServeWs(hub *ChatHub, w http.ResponseWriter, r *http.Request, user model.User, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", user.ID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		User:    user,
		Room:    room,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	hub.add(client)

	go client.writePump()
	go client.readPump()
}
