package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	StatsService *service.StatsService
}

func NewHealthController(statsService *service.StatsService) *HealthController {
	return &HealthController{StatsService: statsService}
}

// Root godoc
// @Summary API 信息
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router / [get]
func (c *HealthController) Root(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"name":    "testgen backend",
		"version": "1.0",
		"docs":    "/swagger/index.html",
	})
}

// @Summary 健康检查
// @Description 检查数据库连接并返回主要表的行数
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response{data=service.Health}
// @Failure 503 {object} util.Response "数据库不可用"
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	health, err := c.StatsService.Health(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, health)
}

// Overview godoc
// @Summary 统计概览
// @Tags 系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Overview}
// @Router /api/stats/overview [get]
func (c *HealthController) Overview(ctx *gin.Context) {
	overview, err := c.StatsService.Overview(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}
