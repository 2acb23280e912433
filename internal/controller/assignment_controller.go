package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	AssignmentService *service.AssignmentService
}

func NewAssignmentController(assignmentService *service.AssignmentService) *AssignmentController {
	return &AssignmentController{AssignmentService: assignmentService}
}

// MyAssignments godoc
// @Summary 我的指派
// @Description 包括直接指派和通过分组指派的测试
// @Tags 指派
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.TestAssignment}} "成功"
// @Router /api/assignments/me [get]
func (c *AssignmentController) MyAssignments(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	list, total, err := c.AssignmentService.ListMine(ctx.Request.Context(), user.ID, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, limit, offset)
}

// CompleteAssignment godoc
// @Summary 标记指派完成
// @Tags 指派
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "指派ID"
// @Success 200 {object} util.Response{data=model.TestAssignment} "成功"
// @Failure 400 {object} util.Response "分组指派由成员各自完成答题"
// @Failure 403 {object} util.Response "不是被指派人"
// @Router /api/assignments/{id}/complete [post]
func (c *AssignmentController) CompleteAssignment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	a, err := c.AssignmentService.Complete(ctx.Request.Context(), id, user)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// DeleteAssignment godoc
// @Summary 删除指派
// @Tags 指派
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "指派ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/assignments/{id} [delete]
func (c *AssignmentController) DeleteAssignment(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.AssignmentService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
