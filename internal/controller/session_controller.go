package controller

import (
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// StartSession godoc
// @Summary 开始答题
// @Tags 答题
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测试ID"
// @Param   body body service.StartSessionRequest false "关联的指派"
// @Success 201 {object} util.Response{data=model.TestSession} "成功"
// @Failure 409 {object} util.Response "尝试次数已用完或已过截止时间"
// @Router /api/tests/{id}/start [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.StartSessionRequest
	if ctx.Request.ContentLength > 0 {
		if !bindJSON(ctx, &req) {
			return
		}
	}
	session, err := c.SessionService.Start(ctx.Request.Context(), id, user.ID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// GetSession godoc
// @Summary 答题记录详情
// @Tags 答题
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.TestSession} "成功"
// @Failure 403 {object} util.Response "无权查看"
// @Router /api/sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	session, err := c.SessionService.Get(ctx.Request.Context(), id, user)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Tags 答题
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Param   body body service.AnswerRequest true "答案"
// @Success 201 {object} util.Response{data=model.UserAnswer} "成功"
// @Failure 409 {object} util.Response "已作答或会话已结束"
// @Router /api/sessions/{id}/answers [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.AnswerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	answer, err := c.SessionService.Answer(ctx.Request.Context(), id, user.ID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, answer)
}

// CompleteSession godoc
// @Summary 交卷
// @Description 计算得分和是否通过，并把关联的指派标记为完成
// @Tags 答题
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.TestSession} "成功"
// @Router /api/sessions/{id}/complete [post]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	session, err := c.SessionService.Complete(ctx.Request.Context(), id, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// AbandonSession godoc
// @Summary 放弃答题
// @Tags 答题
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.TestSession} "成功"
// @Router /api/sessions/{id}/abandon [post]
func (c *SessionController) AbandonSession(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	session, err := c.SessionService.Abandon(ctx.Request.Context(), id, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// MyResults godoc
// @Summary 我的成绩
// @Tags 答题
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.TestSession}} "成功"
// @Router /api/results/me [get]
func (c *SessionController) MyResults(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	list, total, err := c.SessionService.MyResults(ctx.Request.Context(), user.ID, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, limit, offset)
}

// Results godoc
// @Summary 成绩列表
// @Tags 答题
// @Produce  json
// @Security ApiKeyAuth
// @Param   test_id query int false "测试ID"
// @Param   user_id query int false "用户ID"
// @Param   status query string false "in_progress/completed/abandoned"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.TestSession}} "成功"
// @Router /api/results [get]
func (c *SessionController) Results(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	testID, err := util.QueryUintPtr(ctx, "test_id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	userID, err := util.QueryUintPtr(ctx, "user_id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	list, total, err := c.SessionService.Results(ctx.Request.Context(), &service.ResultQuery{
		TestID: testID,
		UserID: userID,
		Status: ctx.Query("status"),
	}, limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, limit, offset)
}
