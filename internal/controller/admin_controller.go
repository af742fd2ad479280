package controller

import (
	"errors"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController 徽章目录维护和平台统计；内容管理在 ContentController
type AdminController struct {
	BadgeService     *service.BadgeService
	AnalyticsService *service.AnalyticsService
}

func NewAdminController(badges *service.BadgeService, analytics *service.AnalyticsService) *AdminController {
	return &AdminController{BadgeService: badges, AnalyticsService: analytics}
}

type CreateBadgeRequest struct {
	Name             string          `json:"name" binding:"required,max=100"`
	Description      string          `json:"description"`
	BadgeType        model.BadgeType `json:"badgeType" binding:"required,max=32"`
	IconURL          string          `json:"iconUrl"`
	RequirementValue int             `json:"requirementValue" binding:"min=0"`
}

// ListBadges godoc
// @Summary 徽章目录
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/admin/badges [get]
func (c *AdminController) ListBadges(ctx *gin.Context) {
	badges, err := c.BadgeService.AvailableBadges(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// CreateBadge godoc
// @Summary 新增徽章
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateBadgeRequest true "徽章"
// @Success 201 {object} util.Response{data=model.Badge}
// @Failure 409 {object} util.Response "徽章类型已存在"
// @Router /api/admin/badges [post]
func (c *AdminController) CreateBadge(ctx *gin.Context) {
	var req CreateBadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	badge := &model.Badge{
		Name:             req.Name,
		Description:      req.Description,
		BadgeType:        req.BadgeType,
		IconURL:          req.IconURL,
		RequirementValue: req.RequirementValue,
	}
	if err := c.BadgeService.CreateBadge(ctx.Request.Context(), badge); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Conflict(ctx, "Badge type already exists")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, badge)
}

// DeleteBadge godoc
// @Summary 删除徽章
// @Description 同时删除所有用户的该徽章记录
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "徽章ID"
// @Success 200 {object} util.Response
// @Router /api/admin/badges/{id} [delete]
func (c *AdminController) DeleteBadge(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.BadgeService.DeleteBadge(ctx.Request.Context(), id); err != nil {
		handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// PlatformAnalytics godoc
// @Summary 平台概览
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.PlatformAnalytics}
// @Router /api/admin/analytics [get]
func (c *AdminController) PlatformAnalytics(ctx *gin.Context) {
	stats, err := c.AnalyticsService.Platform(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
