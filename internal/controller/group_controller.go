package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GroupController struct {
	GroupService *service.GroupService
}

func NewGroupController(groupService *service.GroupService) *GroupController {
	return &GroupController{GroupService: groupService}
}

// swagger:model AddMemberRequest
type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListGroups godoc
// @Summary 分组列表
// @Tags 分组
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Group}} "成功"
// @Router /api/groups [get]
func (c *GroupController) ListGroups(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	groups, total, err := c.GroupService.List(ctx.Request.Context(), limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, groups, total, limit, offset)
}

// GetGroup godoc
// @Summary 分组详情
// @Tags 分组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "分组ID"
// @Success 200 {object} util.Response{data=model.Group} "成功"
// @Failure 404 {object} util.Response "分组不存在"
// @Router /api/groups/{id} [get]
func (c *GroupController) GetGroup(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	group, err := c.GroupService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, group)
}

// CreateGroup godoc
// @Summary 创建分组
// @Tags 分组
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GroupRequest true "分组"
// @Success 201 {object} util.Response{data=model.Group} "创建成功"
// @Router /api/groups [post]
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req service.GroupRequest
	if !bindJSON(ctx, &req) {
		return
	}
	group, err := c.GroupService.Create(ctx.Request.Context(), &req, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, group)
}

// DeleteGroup godoc
// @Summary 删除分组
// @Tags 分组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "分组ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/groups/{id} [delete]
func (c *GroupController) DeleteGroup(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.GroupService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// GetMembers godoc
// @Summary 分组成员
// @Tags 分组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "分组ID"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.User}} "成功"
// @Router /api/groups/{id}/members [get]
func (c *GroupController) GetMembers(ctx *gin.Context) {
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
	users, total, err := c.GroupService.Members(ctx.Request.Context(), id, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, users, total, limit, offset)
}

// AddMember godoc
// @Summary 添加成员
// @Tags 分组
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "分组ID"
// @Param   body body AddMemberRequest true "用户"
// @Success 201 {object} util.Response{data=model.UserGroup} "成功"
// @Failure 409 {object} util.Response "已是成员"
// @Router /api/groups/{id}/members [post]
func (c *GroupController) AddMember(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req AddMemberRequest
	if !bindJSON(ctx, &req) {
		return
	}
	ug, err := c.GroupService.AddMember(ctx.Request.Context(), id, req.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, ug)
}

// RemoveMember godoc
// @Summary 移除成员
// @Tags 分组
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "分组ID"
// @Param   userId path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/groups/{id}/members/{userId} [delete]
func (c *GroupController) RemoveMember(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	userID, err := util.ParamID(ctx, "userId")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.GroupService.RemoveMember(ctx.Request.Context(), id, userID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"group_id": id, "user_id": userID})
}
