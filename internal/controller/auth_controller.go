package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
	}
}

// Login godoc
// @Summary 登录
// @Description 按邮箱登录，账户必须存在且处于激活状态
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body service.LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "用户不存在或未激活"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	result, err := c.AuthService.Login(ctx.Request.Context(), req.Email)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Me godoc
// @Summary 当前用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserView} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	view, err := c.AuthService.Me(ctx.Request.Context(), user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Param   active query bool false "按激活状态筛选"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]service.UserView}} "成功"
// @Router /api/auth/users [get]
func (c *AuthController) ListUsers(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var active *bool
	if ctx.Query("active") != "" {
		v, err := util.QueryBool(ctx, "active", true)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		active = &v
	}

	users, total, err := c.UserService.List(ctx.Request.Context(), active, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, users, total, limit, offset)
}
