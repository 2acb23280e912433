package controller

import (
	"bytes"
	"fmt"
	"io"
	"testgen_backend/internal/service"
	"testgen_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const moodleExportFile = "questions_moodle.xml"

type MoodleController struct {
	MoodleService *service.MoodleService
}

func NewMoodleController(moodleService *service.MoodleService) *MoodleController {
	return &MoodleController{MoodleService: moodleService}
}

// ImportXML godoc
// @Summary 导入 Moodle XML
// @Description 只导入 multichoice 单选题，整个文件在一个事务中写入
// @Tags Moodle
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "Moodle XML"
// @Success 201 {object} util.Response "导入成功"
// @Failure 400 {object} util.Response "XML 无法解析"
// @Router /api/moodle/import [post]
func (c *MoodleController) ImportXML(ctx *gin.Context) {
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

	if _, err := util.ValidateMimeType(file, util.AllowedMoodleXMLTypes); err != nil {
		util.HandleError(ctx, fmt.Errorf("%w: %v", util.ErrValidation, err))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	questions, err := c.MoodleService.Import(ctx.Request.Context(), file, user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	util.Created(ctx, gin.H{"imported": len(questions), "question_ids": ids})
}

// writeXML 先写入缓冲区，导出失败时仍能返回 JSON 错误
func writeXML(ctx *gin.Context, export func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := export(&buf); err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename="+moodleExportFile)
	ctx.Data(200, "application/xml; charset=utf-8", buf.Bytes())
}

// ExportSelected godoc
// @Summary 导出选中的题目
// @Tags Moodle
// @Accept  json
// @Produce  xml
// @Security ApiKeyAuth
// @Param   body body service.ExportRequest true "题目ID"
// @Success 200 {file} file "Moodle XML"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/moodle/export [post]
func (c *MoodleController) ExportSelected(ctx *gin.Context) {
	var req service.ExportRequest
	if !bindJSON(ctx, &req) {
		return
	}
	writeXML(ctx, func(w io.Writer) error {
		return c.MoodleService.Export(ctx.Request.Context(), w, req.QuestionIDs)
	})
}

// ExportByQuery godoc
// @Summary 按 id 列表导出
// @Tags Moodle
// @Produce  xml
// @Security ApiKeyAuth
// @Param   ids query string true "逗号分隔的题目ID"
// @Success 200 {file} file "Moodle XML"
// @Router /api/moodle/export [get]
func (c *MoodleController) ExportByQuery(ctx *gin.Context) {
	ids, err := util.ParseIDList(ctx.Query("ids"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if len(ids) == 0 {
		util.BadRequest(ctx, "ids is required")
		return
	}
	writeXML(ctx, func(w io.Writer) error {
		return c.MoodleService.Export(ctx.Request.Context(), w, ids)
	})
}

// ExportApproved godoc
// @Summary 导出全部已审批题目
// @Tags Moodle
// @Produce  xml
// @Security ApiKeyAuth
// @Success 200 {file} file "Moodle XML"
// @Router /api/moodle/export/approved [get]
func (c *MoodleController) ExportApproved(ctx *gin.Context) {
	writeXML(ctx, func(w io.Writer) error {
		return c.MoodleService.ExportApproved(ctx.Request.Context(), w)
	})
}
