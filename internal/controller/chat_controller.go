package controller

import (
	"regexp"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 房间名只允许字母数字、下划线和连字符
var roomNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ChatController 处理聊天室相关的HTTP请求
type ChatController struct {
	ChatService *service.ChatService
	UserService *service.UserService
	Hub         *service.ChatHub
}

func NewChatController(chatService *service.ChatService, userService *service.UserService, hub *service.ChatHub) *ChatController {
	return &ChatController{
		ChatService: chatService,
		UserService: userService,
		Hub:         hub,
	}
}

func roomParam(c *gin.Context) (string, bool) {
	room := c.Param("room")
	if !roomNamePattern.MatchString(room) {
		util.BadRequest(c, "invalid room name")
		return "", false
	}
	return room, true
}

// HandleWS godoc
// @Summary WebSocket 连接
// @Description 加入聊天室，浏览器可通过 token 查询参数传递 JWT
// @Tags 聊天
// @Security ApiKeyAuth
// @Param room path string true "房间名"
// @Param token query string false "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Router /api/chat/ws/{room} [get]
func (ctrl *ChatController) HandleWS(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	room, ok := roomParam(c)
	if !ok {
		return
	}
	user, err := ctrl.UserService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleLookupError(c, err)
		return
	}
	service.ServeWs(ctrl.Hub, c.Writer, c.Request, *user, room)
}

// History godoc
// @Summary 聊天记录
// @Description 按时间正序返回 before 之前的消息
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Param room path string true "房间名"
// @Param before query string false "消息ID游标"
// @Param limit query int false "数量"
// @Success 200 {object} util.Response{data=[]model.ChatMessage}
// @Router /api/chat/rooms/{room}/messages [get]
func (ctrl *ChatController) History(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}
	limit, _ := pageParams(c)
	msgs, err := ctrl.ChatService.History(c.Request.Context(), room, c.Query("before"), limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, msgs)
}

// RoomInfo godoc
// @Summary 聊天室信息
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Param room path string true "房间名"
// @Success 200 {object} util.Response{data=service.RoomInfo}
// @Router /api/chat/rooms/{room} [get]
func (ctrl *ChatController) RoomInfo(c *gin.Context) {
	room, ok := roomParam(c)
	if !ok {
		return
	}
	info, err := ctrl.ChatService.RoomInfo(c.Request.Context(), room, ctrl.Hub)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, info)
}

// MyRooms godoc
// @Summary 我参与过的聊天室
// @Tags 聊天
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.RoomSummary}
// @Router /api/chat/rooms [get]
func (ctrl *ChatController) MyRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rooms, err := ctrl.ChatService.UserRooms(c.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, rooms)
}
