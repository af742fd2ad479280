package controller

import (
	"errors"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type JournalController struct {
	JournalService *service.JournalService
}

func NewJournalController(journalService *service.JournalService) *JournalController {
	return &JournalController{JournalService: journalService}
}

type CreateJournalRequest struct {
	EntryText string `json:"entryText" binding:"required,max=10000"`
}

// Create godoc
// @Summary 写日记
// @Description 保存日记，情感分析在后台异步完成
// @Tags 日记
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateJournalRequest true "日记内容"
// @Success 201 {object} util.Response{data=model.JournalEntry}
// @Router /api/journal [post]
func (c *JournalController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req CreateJournalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	entry, err := c.JournalService.Create(ctx.Request.Context(), userID, req.EntryText)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, entry)
}

// List godoc
// @Summary 日记列表
// @Tags 日记
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移"
// @Success 200 {object} util.Response{data=[]model.JournalEntry}
// @Router /api/journal [get]
func (c *JournalController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	limit, offset := pageParams(ctx)
	entries, err := c.JournalService.List(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	util.Success(ctx, entries)
}

// Get godoc
// @Summary 日记详情
// @Tags 日记
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "日记ID"
// @Success 200 {object} util.Response{data=model.JournalEntry}
// @Router /api/journal/{id} [get]
func (c *JournalController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	entry, err := c.JournalService.Get(ctx.Request.Context(), userID, id)
	if err != nil {
		handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, entry)
}

// Delete godoc
// @Summary 删除日记
// @Tags 日记
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "日记ID"
// @Success 200 {object} util.Response
// @Router /api/journal/{id} [delete]
func (c *JournalController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.JournalService.Delete(ctx.Request.Context(), userID, id); err != nil {
		handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// handleLookupError 不属于当前用户的记录同样按 404 处理
func handleLookupError(ctx *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.NotFound(ctx)
		return
	}
	util.LogInternalError(ctx, err)
}
