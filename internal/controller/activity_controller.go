package controller

import (
	"net/http"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	ActivityService *service.ActivityService
}

func NewActivityController(activityService *service.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

type LogActivityRequest struct {
	ContentID uint `json:"contentId" binding:"required"`
}

// LogActivity godoc
// @Summary 记录完成一项内容
// @Description 更新连续打卡天数并评估徽章
// @Tags 活动
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LogActivityRequest true "完成的内容"
// @Success 200 {object} util.Response{data=model.CompletionResult}
// @Failure 404 {object} util.Response{data=model.CompletionResult} "内容不存在"
// @Router /api/activity/log [post]
func (c *ActivityController) LogActivity(ctx *gin.Context) {
	var req LogActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.complete(ctx, req.ContentID)
}

// CompleteFromHome godoc
// @Summary 从首页完成今日推荐
// @Tags 首页
// @Produce json
// @Security ApiKeyAuth
// @Param contentId path int true "内容ID"
// @Success 200 {object} util.Response{data=model.CompletionResult}
// @Router /api/home/activity/{contentId}/complete [post]
func (c *ActivityController) CompleteFromHome(ctx *gin.Context) {
	contentID, ok := pathID(ctx, "contentId")
	if !ok {
		return
	}
	c.complete(ctx, contentID)
}

func (c *ActivityController) complete(ctx *gin.Context, contentID uint) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	result := c.ActivityService.MarkCompleted(ctx.Request.Context(), userID, contentID)
	if result.Success {
		util.Success(ctx, result)
		return
	}

	status := http.StatusInternalServerError
	if result.Message == util.ErrContentNotFound.Error() {
		status = http.StatusNotFound
	}
	ctx.JSON(status, util.Response{Code: status, Message: result.Message, Data: result})
}

// ListLogs godoc
// @Summary 活动记录
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移"
// @Success 200 {object} util.Response{data=[]model.ActivityLog}
// @Router /api/activity/logs [get]
func (c *ActivityController) ListLogs(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	limit, offset := pageParams(ctx)
	logs, err := c.ActivityService.ListLogs(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	util.Success(ctx, logs)
}
