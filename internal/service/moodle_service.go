package service

import (
	"context"
	"fmt"
	"io"
	"testgen_backend/internal/model"
	"testgen_backend/internal/moodle"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"
	"testgen_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ExportRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

type MoodleService struct {
	QuestionRepo *repository.QuestionRepository
	Audit        *AuditService
}

func NewMoodleService(questions *repository.QuestionRepository, audit *AuditService) *MoodleService {
	return &MoodleService{QuestionRepo: questions, Audit: audit}
}

// Import 解析 Moodle XML 并在一个事务中写入全部题目，导入的题目未审批
func (s *MoodleService) Import(ctx context.Context, r io.Reader, creatorID uint) (_ []*model.Question, err error) {
	ctx, span := tracing.StartSpan(ctx, "MoodleService.Import")
	defer func() { tracing.EndSpan(span, err) }()

	questions, err := moodle.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrValidation, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no single-answer multichoice questions found", util.ErrValidation)
	}
	for _, q := range questions {
		q.CreatorID = creatorID
	}
	if err := s.QuestionRepo.CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("import questions: %w", err)
	}

	span.SetAttributes(attribute.Int("questions", len(questions)))
	for _, q := range questions {
		s.Audit.Record(ctx, q.TableName(), model.AuditInsert, q.ID, nil, q)
	}
	logger.Log.Info("Imported moodle questions", zap.Int("count", len(questions)), zap.Uint("creator_id", creatorID))
	return questions, nil
}

// Export 导出指定题目，不存在的 id 被忽略，全部不存在时返回 ErrNotFound
func (s *MoodleService) Export(ctx context.Context, w io.Writer, ids []uint) error {
	questions, err := s.QuestionRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("questions %v: %w", ids, util.ErrNotFound)
	}
	return moodle.Export(w, questions)
}

func (s *MoodleService) ExportApproved(ctx context.Context, w io.Writer) error {
	questions, err := s.QuestionRepo.ListApproved(ctx)
	if err != nil {
		return err
	}
	return moodle.Export(w, questions)
}
