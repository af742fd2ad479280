package controller

import (
	"errors"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary 获取当前用户资料
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	user, err := c.UserService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		c.handleUserError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary 更新当前用户资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ProfileInput true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.ProfileInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateProfile(ctx.Request.Context(), userID, req)
	if err != nil {
		c.handleUserError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// Onboard godoc
// @Summary 完成引导流程
// @Description 保存姓名、年龄并覆盖用户目标
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.OnboardInput true "引导资料"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "未知目标"
// @Router /api/users/me/onboard [put]
func (c *UserController) Onboard(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.OnboardInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.Onboard(ctx.Request.Context(), userID, req)
	if err != nil {
		c.handleUserError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// AvailableGoals godoc
// @Summary 预置目标列表
// @Tags 用户
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Goal}
// @Router /api/users/goals [get]
func (c *UserController) AvailableGoals(ctx *gin.Context) {
	goals, err := c.UserService.AvailableGoals(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, goals)
}

// MyGoals godoc
// @Summary 当前用户的目标
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Goal}
// @Router /api/users/me/goals [get]
func (c *UserController) MyGoals(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	goals, err := c.UserService.UserGoals(ctx.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, goals)
}

func (c *UserController) handleUserError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUnknownGoal):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
