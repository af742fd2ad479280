package controller

import (
	"strconv"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 趋势查询默认 30 天，最多一年
const (
	defaultTrendDays = 30
	maxTrendDays     = 365
)

type WellnessController struct {
	WellnessService       *service.WellnessService
	RecommendationService *service.RecommendationService
}

func NewWellnessController(wellness *service.WellnessService, recommendations *service.RecommendationService) *WellnessController {
	return &WellnessController{WellnessService: wellness, RecommendationService: recommendations}
}

// WellnessScore godoc
// @Summary 健康分
// @Description 综合近 7 天日记情感与心情记录的 0-100 分
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.WellnessScore}
// @Router /api/ai/wellness-score [get]
func (c *WellnessController) WellnessScore(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.WellnessService.WellnessScore(ctx.Request.Context(), userID))
}

// Insights godoc
// @Summary 健康提示
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.WellnessInsights}
// @Router /api/ai/insights [get]
func (c *WellnessController) Insights(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.WellnessService.Insights(ctx.Request.Context(), userID))
}

// SentimentTrend godoc
// @Summary 日记情感趋势
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Param days query int false "天数，默认 30"
// @Success 200 {object} util.Response{data=[]model.Signal}
// @Router /api/ai/trends/sentiment [get]
func (c *WellnessController) SentimentTrend(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	signals, err := c.WellnessService.SentimentTrend(ctx.Request.Context(), userID, trendDays(ctx))
	respondSignals(ctx, signals, err)
}

// MoodTrend godoc
// @Summary 心情趋势
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Param days query int false "天数，默认 30"
// @Success 200 {object} util.Response{data=[]model.Signal}
// @Router /api/ai/trends/mood [get]
func (c *WellnessController) MoodTrend(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	signals, err := c.WellnessService.MoodTrend(ctx.Request.Context(), userID, trendDays(ctx))
	respondSignals(ctx, signals, err)
}

// Recommendations godoc
// @Summary 个性化推荐
// @Description 紧急、目标、热门、探索四层推荐，去重后最多 10 条
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.RecommendationCandidate}
// @Router /api/ai/recommendations [get]
func (c *WellnessController) Recommendations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	recs, err := c.RecommendationService.GenerateRecommendations(ctx.Request.Context(), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, recs)
}

func trendDays(ctx *gin.Context) int {
	days, err := strconv.Atoi(ctx.Query("days"))
	if err != nil || days < 1 {
		return defaultTrendDays
	}
	return min(days, maxTrendDays)
}

func respondSignals(ctx *gin.Context, signals []model.Signal, err error) {
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if signals == nil {
		signals = []model.Signal{}
	}
	util.Success(ctx, signals)
}
