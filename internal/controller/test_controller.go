package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService       *service.TestService
	AssignmentService *service.AssignmentService
}

func NewTestController(testService *service.TestService, assignmentService *service.AssignmentService) *TestController {
	return &TestController{
		TestService:       testService,
		AssignmentService: assignmentService,
	}
}

// ListTests godoc
// @Summary 测试列表
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   active_only query bool false "只看启用的测试" default(true)
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]service.TestView}} "成功"
// @Router /api/tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	activeOnly, err := util.QueryBool(ctx, "active_only", true)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	tests, total, err := c.TestService.List(ctx.Request.Context(), activeOnly, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, tests, total, limit, offset)
}

// GetTest godoc
// @Summary 测试详情
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Success 200 {object} util.Response{data=service.TestView} "成功"
// @Failure 404 {object} util.Response "测试不存在"
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	test, err := c.TestService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// CreateTest godoc
// @Summary 创建测试
// @Tags 测试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.TestRequest true "测试"
// @Success 201 {object} util.Response{data=service.TestView} "创建成功"
// @Router /api/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req service.TestRequest
	if !bindJSON(ctx, &req) {
		return
	}
	test, err := c.TestService.Create(ctx.Request.Context(), &req, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// DeleteTest godoc
// @Summary 删除测试
// @Description 题目关联、指派和答题记录一并删除
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.TestService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// GetQuestions godoc
// @Summary 测试中的题目
// @Description 按 question_order 排序，测试不公开答案时 is_correct 为 null
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Success 200 {object} util.Response{data=service.TestQuestionsView} "成功"
// @Router /api/tests/{id}/questions [get]
func (c *TestController) GetQuestions(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	view, err := c.TestService.Questions(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AddQuestion godoc
// @Summary 向测试添加题目
// @Tags 测试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Param   body body service.TestQuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.TestQuestion} "成功"
// @Failure 409 {object} util.Response "题目已在测试中"
// @Router /api/tests/{id}/questions [post]
func (c *TestController) AddQuestion(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.TestQuestionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	tq, err := c.TestService.AddQuestion(ctx.Request.Context(), id, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, tq)
}

// RemoveQuestion godoc
// @Summary 从测试移除题目
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/tests/{id}/questions/{questionId} [delete]
func (c *TestController) RemoveQuestion(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	questionID, err := util.ParamID(ctx, "questionId")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.TestService.RemoveQuestion(ctx.Request.Context(), id, questionID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"test_id": id, "question_id": questionID})
}

// CreateAssignment godoc
// @Summary 指派测试
// @Description user_id 和 group_id 至少提供一个
// @Tags 测试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Param   body body service.AssignmentRequest true "指派"
// @Success 201 {object} util.Response{data=model.TestAssignment} "成功"
// @Router /api/tests/{id}/assignments [post]
func (c *TestController) CreateAssignment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.AssignmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	a, err := c.AssignmentService.Create(ctx.Request.Context(), id, &req, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// ListAssignments godoc
// @Summary 测试的指派列表
// @Tags 测试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.TestAssignment}} "成功"
// @Router /api/tests/{id}/assignments [get]
func (c *TestController) ListAssignments(ctx *gin.Context) {
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
	list, total, err := c.AssignmentService.ListByTest(ctx.Request.Context(), id, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, limit, offset)
}
