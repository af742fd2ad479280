package controller

import (
	"errors"
	"net/http"
	"strings"
	"uplook_backend/internal/model"
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 单个媒体文件上限 500MB
const maxUploadSize = 500 << 20

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// Explore godoc
// @Summary 浏览内容
// @Description 按分类、类型和关键字筛选内容，支持分页
// @Tags 内容
// @Produce json
// @Param category query string false "分类" Enums(sleep, anxiety, self_confidence, work)
// @Param type query string false "类型，逗号分隔"
// @Param search query string false "标题关键字"
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移"
// @Success 200 {object} util.Response{data=service.ContentPage}
// @Router /api/content/explore [get]
func (c *ContentController) Explore(ctx *gin.Context) {
	limit, offset := pageParams(ctx)
	filter := model.ContentFilter{
		Search: strings.TrimSpace(ctx.Query("search")),
		Limit:  limit,
		Offset: offset,
	}

	if raw := ctx.Query("category"); raw != "" {
		category := model.Category(strings.ToLower(raw))
		if !category.Valid() {
			util.BadRequest(ctx, "invalid category")
			return
		}
		filter.Category = category
	}
	if raw := ctx.Query("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t := model.ContentType(strings.ToLower(strings.TrimSpace(part)))
			if !t.Valid() {
				util.BadRequest(ctx, "invalid content type: "+part)
				return
			}
			filter.ContentTypes = append(filter.ContentTypes, t)
		}
	}

	page, err := c.ContentService.Explore(ctx.Request.Context(), filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  page.Items,
		Total: page.Total,
		Page:  offset/limit + 1,
		Limit: limit,
	})
}

// Library godoc
// @Summary 学习模块库
// @Description 按分类分组返回学习模块
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response{data=[]service.LibrarySection}
// @Router /api/content/library [get]
func (c *ContentController) Library(ctx *gin.Context) {
	sections, err := c.ContentService.Library(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sections)
}

// Detail godoc
// @Summary 内容详情
// @Tags 内容
// @Produce json
// @Param id path int true "内容ID"
// @Success 200 {object} util.Response{data=model.Content}
// @Failure 404 {object} util.Response
// @Router /api/content/{id} [get]
func (c *ContentController) Detail(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	content, err := c.ContentService.Get(ctx.Request.Context(), id)
	if err != nil {
		c.handleContentError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

type categoryItem struct {
	Value model.Category `json:"value"`
	Label string         `json:"label"`
}

// Categories godoc
// @Summary 内容分类
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/categories [get]
func (c *ContentController) Categories(ctx *gin.Context) {
	items := make([]categoryItem, 0, len(model.Categories))
	for _, cat := range model.Categories {
		items = append(items, categoryItem{Value: cat, Label: cat.Title()})
	}
	util.Success(ctx, items)
}

// Types godoc
// @Summary 内容类型
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/types [get]
func (c *ContentController) Types(ctx *gin.Context) {
	util.Success(ctx, model.ContentTypes)
}

// Create godoc
// @Summary 创建内容
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ContentInput true "内容"
// @Success 201 {object} util.Response{data=model.Content}
// @Router /api/admin/content [post]
func (c *ContentController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.ContentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.ContentService.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, content)
}

// Update godoc
// @Summary 更新内容
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "内容ID"
// @Param body body service.ContentInput true "内容"
// @Success 200 {object} util.Response{data=model.Content}
// @Router /api/admin/content/{id} [put]
func (c *ContentController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.ContentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.ContentService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		c.handleContentError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// Delete godoc
// @Summary 删除内容
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "内容ID"
// @Success 200 {object} util.Response
// @Router /api/admin/content/{id} [delete]
func (c *ContentController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ContentService.Delete(ctx.Request.Context(), id); err != nil {
		c.handleContentError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// UploadMedia godoc
// @Summary 上传媒体文件
// @Description 上传音视频或图片，视频会自动探测时长并生成封面
// @Tags 管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "媒体文件"
// @Success 201 {object} util.Response{data=service.MediaUpload}
// @Failure 415 {object} util.Response "不支持的文件类型"
// @Router /api/admin/content/upload [post]
func (c *ContentController) UploadMedia(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadSize)
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	result, err := c.ContentService.UploadMedia(ctx.Request.Context(), file)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedMedia) {
			util.Error(ctx, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

func (c *ContentController) handleContentError(ctx *gin.Context, err error) {
	if errors.Is(err, util.ErrContentNotFound) {
		util.NotFound(ctx)
		return
	}
	util.LogInternalError(ctx, err)
}
