package controller

import (
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser 未登录时直接写 401 响应
func currentUser(ctx *gin.Context) (*util.CurrentUser, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return user, true
}

func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		util.BadRequest(ctx, err.Error())
		return false
	}
	return true
}

func page(ctx *gin.Context, list interface{}, total int64, limit, offset int) {
	util.Success(ctx, util.PageResponse{
		List:   list,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
