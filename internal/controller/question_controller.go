package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// ListQuestions godoc
// @Summary 题目列表
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   approved_only query bool false "只看已审批" default(false)
// @Param   document_id query int false "来源文档"
// @Param   difficulty query string false "easy/medium/hard"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.Question}} "成功"
// @Router /api/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	approvedOnly, err := util.QueryBool(ctx, "approved_only", false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	documentID, err := util.QueryUintPtr(ctx, "document_id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	questions, total, err := c.QuestionService.List(ctx.Request.Context(), service.QuestionQuery{
		ApprovedOnly: approvedOnly,
		DocumentID:   documentID,
		Difficulty:   ctx.Query("difficulty"),
	}, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, questions, total, limit, offset)
}

// GetQuestion godoc
// @Summary 题目详情
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	q, err := c.QuestionService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 最多 5 个选项，option_order 在 1..5 内且不重复
// @Tags 题目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req service.QuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	q, err := c.QuestionService.Create(ctx.Request.Context(), &req, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// ApproveQuestion godoc
// @Summary 审批题目
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Router /api/questions/{id}/approve [post]
func (c *QuestionController) ApproveQuestion(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	q, err := c.QuestionService.Approve(ctx.Request.Context(), id, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Description 选项、测试中的引用和作答记录一并删除
// @Tags 题目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.QuestionService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
