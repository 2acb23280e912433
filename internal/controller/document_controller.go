package controller

import (
	"fmt"
	"io"
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	DocumentService *service.DocumentService
}

func NewDocumentController(documentService *service.DocumentService) *DocumentController {
	return &DocumentController{DocumentService: documentService}
}

// UploadDocument godoc
// @Summary 上传源文档
// @Description 保存文件、创建 pending 记录并投递题目生成任务
// @Tags 文档
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "文档"
// @Success 201 {object} util.Response{data=service.DocumentView} "上传成功"
// @Failure 400 {object} util.Response "文件类型或大小不合法"
// @Router /api/documents [post]
func (c *DocumentController) UploadDocument(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	detected, err := util.ValidateMimeType(file, util.AllowedDocumentTypes)
	if err != nil {
		util.HandleError(ctx, fmt.Errorf("%w: %v", util.ErrValidation, err))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = detected
	}

	doc, err := c.DocumentService.Upload(ctx.Request.Context(), service.UploadInput{
		Filename:   header.Filename,
		Size:       header.Size,
		MimeType:   mimeType,
		Body:       file,
		UploaderID: user.ID,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, doc)
}

// ListDocuments godoc
// @Summary 文档列表
// @Tags 文档
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "pending/processing/completed/failed"
// @Param   limit query int false "条数" default(100)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]service.DocumentView}} "成功"
// @Router /api/documents [get]
func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	limit, offset, err := util.Pagination(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	docs, total, err := c.DocumentService.List(ctx.Request.Context(), ctx.Query("status"), limit, offset)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, docs, total, limit, offset)
}

// GetDocument godoc
// @Summary 文档详情
// @Tags 文档
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文档ID"
// @Success 200 {object} util.Response{data=service.DocumentView} "成功"
// @Failure 404 {object} util.Response "文档不存在"
// @Router /api/documents/{id} [get]
func (c *DocumentController) GetDocument(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	doc, err := c.DocumentService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// UpdateStatus godoc
// @Summary 更新处理状态
// @Description 生成任务回写状态，终态时记录 processed_at
// @Tags 文档
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文档ID"
// @Param   body body service.DocumentStatusRequest true "状态"
// @Success 200 {object} util.Response{data=service.DocumentView} "成功"
// @Router /api/documents/{id}/status [patch]
func (c *DocumentController) UpdateStatus(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.DocumentStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	doc, err := c.DocumentService.UpdateStatus(ctx.Request.Context(), id, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// DeleteDocument godoc
// @Summary 删除文档
// @Description 由该文档生成的题目保留，source_document_id 置空
// @Tags 文档
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文档ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/documents/{id} [delete]
func (c *DocumentController) DeleteDocument(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.DocumentService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
