package controller

import (
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// StreakController 连续打卡与徽章查询，打卡写入复用 ActivityController
type StreakController struct {
	StreakService *service.StreakService
	BadgeService  *service.BadgeService
}

func NewStreakController(streaks *service.StreakService, badges *service.BadgeService) *StreakController {
	return &StreakController{StreakService: streaks, BadgeService: badges}
}

// Status godoc
// @Summary 连续打卡状态
// @Description 只读查询，中断超过一天的连续天数显示为 0
// @Tags 连续打卡
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.StreakStatus}
// @Router /api/streaks/status [get]
func (c *StreakController) Status(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	status, err := c.StreakService.GetStatus(ctx.Request.Context(), userID)
	if err != nil {
		handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// UserBadges godoc
// @Summary 我的徽章
// @Description 包含已获得的徽章和进行中的进度
// @Tags 连续打卡
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.UserBadge}
// @Router /api/streaks/badges [get]
func (c *StreakController) UserBadges(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	badges, err := c.BadgeService.UserBadges(ctx.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if badges == nil {
		badges = []model.UserBadge{}
	}
	util.Success(ctx, badges)
}

// AvailableBadges godoc
// @Summary 徽章目录
// @Tags 连续打卡
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/streaks/badges/available [get]
func (c *StreakController) AvailableBadges(ctx *gin.Context) {
	badges, err := c.BadgeService.AvailableBadges(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}
