package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuditController struct {
	AuditService *service.AuditService
}

func NewAuditController(auditService *service.AuditService) *AuditController {
	return &AuditController{AuditService: auditService}
}

// ListAudit godoc
// @Summary 审计日志
// @Tags 审计
// @Produce  json
// @Security ApiKeyAuth
// @Param   table query string false "表名"
// @Param   record_id query int false "记录ID"
// @Param   operation query string false "INSERT/UPDATE/DELETE"
// @Param   user_id query int false "操作人"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.AuditLog}} "成功"
// @Router /api/audit [get]
func (c *AuditController) ListAudit(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	recordID, err := util.QueryUintPtr(ctx, "record_id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	userID, err := util.QueryUintPtr(ctx, "user_id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	list, total, err := c.AuditService.List(ctx.Request.Context(), service.AuditQuery{
		Table:     ctx.Query("table"),
		RecordID:  recordID,
		Operation: ctx.Query("operation"),
		UserID:    userID,
	}, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, limit, offset)
}

// GetAudit godoc
// @Summary 审计记录详情
// @Tags 审计
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "记录ID"
// @Success 200 {object} util.Response{data=model.AuditLog} "成功"
// @Router /api/audit/{id} [get]
func (c *AuditController) GetAudit(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	entry, err := c.AuditService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entry)
}
