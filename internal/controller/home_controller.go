package controller

import (
	"uplook_backend/internal/service"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HomeController struct {
	AgendaService *service.AgendaService
}

func NewHomeController(agendaService *service.AgendaService) *HomeController {
	return &HomeController{AgendaService: agendaService}
}

// Agenda godoc
// @Summary 今日议程
// @Description 健康分、本周完成数、今日推荐前 4 项和下一个里程碑
// @Tags 首页
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.DailyAgenda}
// @Router /api/home/agenda [get]
func (c *HomeController) Agenda(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	agenda, err := c.AgendaService.GetDailyAgenda(ctx.Request.Context(), userID)
	if err != nil {
		handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, agenda)
}
