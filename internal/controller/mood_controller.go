package controller

import (
	"errors"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MoodController struct {
	MoodService *service.MoodService
}

func NewMoodController(moodService *service.MoodService) *MoodController {
	return &MoodController{MoodService: moodService}
}

type LogMoodRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Note   string `json:"note" binding:"max=500"`
}

// LogRating godoc
// @Summary 记录心情评分
// @Description 1-5 分评分，归一化为 rating/5
// @Tags 心情
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LogMoodRequest true "评分"
// @Success 201 {object} util.Response{data=model.MoodLog}
// @Router /api/mood [post]
func (c *MoodController) LogRating(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req LogMoodRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	log, err := c.MoodService.LogRating(ctx.Request.Context(), userID, req.Rating, req.Note)
	if err != nil {
		if errors.Is(err, util.ErrInvalidRating) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, log)
}

// SyncWearable godoc
// @Summary 同步手表数据
// @Description 根据心率、HRV、压力、睡眠和活动量计算心情分
// @Tags 心情
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.WearableMetrics true "手表指标"
// @Success 201 {object} util.Response{data=model.MoodLog}
// @Router /api/mood/smartwatch-sync [post]
func (c *MoodController) SyncWearable(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var metrics model.WearableMetrics
	if err := ctx.ShouldBindJSON(&metrics); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	log, err := c.MoodService.SyncWearable(ctx.Request.Context(), userID, metrics)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, log)
}

// List godoc
// @Summary 心情记录
// @Tags 心情
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移"
// @Success 200 {object} util.Response{data=[]model.MoodLog}
// @Router /api/mood [get]
func (c *MoodController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	limit, offset := pageParams(ctx)
	logs, err := c.MoodService.List(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if logs == nil {
		logs = []model.MoodLog{}
	}
	util.Success(ctx, logs)
}
