package controller

import (
	"errors"
	"strconv"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	PlanService *service.PlanService
}

func NewPlanController(planService *service.PlanService) *PlanController {
	return &PlanController{PlanService: planService}
}

// List godoc
// @Summary 我的复习计划
// @Description 每个计划附带卡片总数、到期数和新卡数
// @Tags 复习计划
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PlanSummary}
// @Router /api/plans [get]
func (c *PlanController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	plans, err := c.PlanService.ListPlans(ctx.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plans)
}

// Create godoc
// @Summary 创建复习计划
// @Tags 复习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreatePlanInput true "计划与卡片"
// @Success 201 {object} util.Response{data=model.Plan}
// @Router /api/plans [post]
func (c *PlanController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.CreatePlanInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	plan, err := c.PlanService.CreatePlan(ctx.Request.Context(), userID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, plan)
}

type AddCardsRequest struct {
	Cards []service.CardInput `json:"cards" binding:"required,min=1,dive"`
}

// AddCards godoc
// @Summary 向计划追加卡片
// @Tags 复习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param planId path int true "计划ID"
// @Param body body AddCardsRequest true "卡片"
// @Success 201 {object} util.Response{data=[]model.PlanCard}
// @Router /api/plans/{planId}/cards [post]
func (c *PlanController) AddCards(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	planID, ok := pathID(ctx, "planId")
	if !ok {
		return
	}
	var req AddCardsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cards, err := c.PlanService.AddCards(ctx.Request.Context(), userID, planID, req.Cards)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Created(ctx, cards)
}

// DueCards godoc
// @Summary 待复习卡片
// @Description 先取至多 10 张新卡，剩余名额给到期卡片
// @Tags 复习计划
// @Produce json
// @Security ApiKeyAuth
// @Param planId path int true "计划ID"
// @Param limit query int false "数量上限"
// @Success 200 {object} util.Response{data=[]model.PlanCard}
// @Router /api/plans/{planId}/due-cards [get]
func (c *PlanController) DueCards(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	planID, ok := pathID(ctx, "planId")
	if !ok {
		return
	}
	// 0 表示使用服务端默认上限
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	cards, err := c.PlanService.DueCardsForUser(ctx.Request.Context(), userID, planID, limit)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Success(ctx, cards)
}

// StartSession godoc
// @Summary 开始复习
// @Tags 复习计划
// @Produce json
// @Security ApiKeyAuth
// @Param planId path int true "计划ID"
// @Success 201 {object} util.Response{data=model.ReviewSession}
// @Router /api/plans/{planId}/sessions [post]
func (c *PlanController) StartSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	planID, ok := pathID(ctx, "planId")
	if !ok {
		return
	}
	session, err := c.PlanService.StartSession(ctx.Request.Context(), userID, planID)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// SubmitReview godoc
// @Summary 提交卡片作答
// @Description 按 SM-2 规则计算下次复习时间
// @Tags 复习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path int true "复习会话ID"
// @Param body body service.ReviewInput true "作答"
// @Success 200 {object} util.Response{data=model.PlanCard}
// @Router /api/plans/sessions/{sessionId}/reviews [post]
func (c *PlanController) SubmitReview(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, "sessionId")
	if !ok {
		return
	}
	var req service.ReviewInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	// 校验已通过，这里只做大小写归一
	req.Response, _ = model.ParseReviewResponse(string(req.Response))
	card, err := c.PlanService.SubmitReview(ctx.Request.Context(), userID, sessionID, req)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Success(ctx, card)
}

// EndSession godoc
// @Summary 结束复习
// @Tags 复习计划
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path int true "复习会话ID"
// @Success 200 {object} util.Response{data=model.ReviewSession}
// @Router /api/plans/sessions/{sessionId}/end [post]
func (c *PlanController) EndSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, "sessionId")
	if !ok {
		return
	}
	session, err := c.PlanService.EndSession(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Analytics godoc
// @Summary 计划统计
// @Tags 复习计划
// @Produce json
// @Security ApiKeyAuth
// @Param planId path int true "计划ID"
// @Success 200 {object} util.Response{data=model.PlanAnalytics}
// @Router /api/plans/{planId}/analytics [get]
func (c *PlanController) Analytics(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	planID, ok := pathID(ctx, "planId")
	if !ok {
		return
	}
	stats, err := c.PlanService.Analytics(ctx.Request.Context(), userID, planID)
	if err != nil {
		handlePlanError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

func handlePlanError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPlanNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrCardNotFound):
		util.Error(ctx, 404, err.Error())
	case errors.Is(err, util.ErrSessionEnded):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
