package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RoleController struct {
	RoleService *service.RoleService
}

func NewRoleController(roleService *service.RoleService) *RoleController {
	return &RoleController{RoleService: roleService}
}

// ListRoles godoc
// @Summary 角色列表
// @Tags 角色
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Role} "成功"
// @Router /api/roles [get]
func (c *RoleController) ListRoles(ctx *gin.Context) {
	roles, err := c.RoleService.List(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, roles)
}

// CreateRole godoc
// @Summary 创建角色
// @Tags 角色
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.RoleRequest true "角色"
// @Success 201 {object} util.Response{data=model.Role} "创建成功"
// @Failure 409 {object} util.Response "角色名已存在"
// @Router /api/roles [post]
func (c *RoleController) CreateRole(ctx *gin.Context) {
	var req service.RoleRequest
	if !bindJSON(ctx, &req) {
		return
	}
	role, err := c.RoleService.Create(ctx.Request.Context(), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, role)
}

// DeleteRole godoc
// @Summary 删除角色
// @Tags 角色
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "角色ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/roles/{id} [delete]
func (c *RoleController) DeleteRole(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.RoleService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// GetRoleUsers godoc
// @Summary 拥有该角色的用户
// @Tags 角色
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "角色ID"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.User}} "成功"
// @Router /api/roles/{id}/users [get]
func (c *RoleController) GetRoleUsers(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	users, total, err := c.RoleService.Users(ctx.Request.Context(), id, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, users, total, limit, offset)
}
