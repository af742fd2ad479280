package controller

import (
	"strconv"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// currentUserID 取出鉴权中间件写入的用户，未登录时直接返回 401
func currentUserID(c *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return 0, false
	}
	return claims.UserID, true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) (limit, offset int) {
	return util.ClampLimit(c.DefaultQuery("limit", "")), util.ParseOffset(c.Query("offset"))
}

// RegisterValidators 注册自定义校验规则，启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("review_grade", func(fl validator.FieldLevel) bool {
		_, err := model.ParseReviewResponse(fl.Field().String())
		return err == nil
	})
}
