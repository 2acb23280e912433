package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 用户管理，仅管理员可用
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// swagger:model AssignRoleRequest
type AssignRoleRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

// swagger:model SetActiveRequest
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateUser godoc
// @Summary 创建用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateUserRequest true "用户信息"
// @Success 201 {object} util.Response{data=service.UserView} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已存在"
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.UserService.Create(ctx.Request.Context(), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, user)
}

// GetUser godoc
// @Summary 获取单个用户信息
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=service.UserView} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	user, err := c.UserService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// SetActive godoc
// @Summary 启用或停用用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body SetActiveRequest true "状态"
// @Success 200 {object} util.Response{data=service.UserView} "成功"
// @Router /api/users/{id}/active [patch]
func (c *UserController) SetActive(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req SetActiveRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.UserService.SetActive(ctx.Request.Context(), id, *req.IsActive)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 删除用户及其创建的题目、测试和答题记录
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.UserService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// GetUserRoles godoc
// @Summary 用户的角色
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Role} "成功"
// @Router /api/users/{id}/roles [get]
func (c *UserController) GetUserRoles(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	roles, err := c.UserService.Roles(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, roles)
}

// AssignRole godoc
// @Summary 分配角色
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body AssignRoleRequest true "角色"
// @Success 201 {object} util.Response{data=model.UserRole} "成功"
// @Failure 409 {object} util.Response "已拥有该角色"
// @Router /api/users/{id}/roles [post]
func (c *UserController) AssignRole(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req AssignRoleRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ur, err := c.UserService.AssignRole(ctx.Request.Context(), id, req.RoleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, ur)
}

// RevokeRole godoc
// @Summary 撤销角色
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   roleId path int true "角色ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/users/{id}/roles/{roleId} [delete]
func (c *UserController) RevokeRole(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	roleID, err := util.ParamID(ctx, "roleId")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.UserService.RevokeRole(ctx.Request.Context(), id, roleID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"user_id": id, "role_id": roleID})
}

// GetUserGroups godoc
// @Summary 用户所在分组
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.Group} "成功"
// @Router /api/users/{id}/groups [get]
func (c *UserController) GetUserGroups(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	groups, err := c.UserService.Groups(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, groups)
}
