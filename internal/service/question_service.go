package service

import (
	"context"
	"fmt"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"time"
)

type AnswerOptionRequest struct {
	AnswerText  string `json:"answer_text" binding:"required"`
	IsCorrect   bool   `json:"is_correct"`
	OptionOrder int    `json:"option_order"` // 为 0 时按列表顺序编号
}

type QuestionRequest struct {
	QuestionText     string                `json:"question_text" binding:"required"`
	SourceDocumentID *uint                 `json:"source_document_id"`
	Difficulty       *string               `json:"difficulty"`
	MoodleName       *string               `json:"moodle_name"`
	MoodleQuestionID *int64                `json:"moodle_question_id"`
	DefaultGrade     *float64              `json:"default_grade"`
	Penalty          *float64              `json:"penalty"`
	ShuffleAnswers   *bool                 `json:"shuffle_answers"`
	AnswerOptions    []AnswerOptionRequest `json:"answer_options"`
}

type QuestionQuery struct {
	ApprovedOnly bool
	DocumentID   *uint
	Difficulty   string
}

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	Audit        *AuditService
}

func NewQuestionService(questions *repository.QuestionRepository, audit *AuditService) *QuestionService {
	return &QuestionService{QuestionRepo: questions, Audit: audit}
}

func buildOptions(reqs []AnswerOptionRequest) ([]model.AnswerOption, error) {
	if len(reqs) > model.MaxAnswerOptions {
		return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrTooManyOptions)
	}
	seen := make(map[int]bool, len(reqs))
	options := make([]model.AnswerOption, 0, len(reqs))
	for i, r := range reqs {
		order := r.OptionOrder
		if order == 0 {
			order = i + 1
		}
		if order < 1 || order > model.MaxAnswerOptions || seen[order] {
			return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrOptionOrder)
		}
		seen[order] = true
		options = append(options, model.AnswerOption{
			AnswerText:  r.AnswerText,
			IsCorrect:   r.IsCorrect,
			OptionOrder: order,
		})
	}
	return options, nil
}

func parseDifficulty(s *string) (*model.Difficulty, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d := model.Difficulty(*s)
	if !d.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", util.ErrValidation, *s)
	}
	return &d, nil
}

// Create 题目可以没有选项，最多 5 个
func (s *QuestionService) Create(ctx context.Context, req *QuestionRequest, creatorID uint) (*model.Question, error) {
	text := strings.TrimSpace(req.QuestionText)
	if text == "" {
		return nil, fmt.Errorf("%w: question text is empty", util.ErrValidation)
	}
	options, err := buildOptions(req.AnswerOptions)
	if err != nil {
		return nil, err
	}
	difficulty, err := parseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		QuestionText:     text,
		SourceDocumentID: req.SourceDocumentID,
		CreatorID:        creatorID,
		Difficulty:       difficulty,
		MoodleName:       req.MoodleName,
		MoodleQuestionID: req.MoodleQuestionID,
		DefaultGrade:     model.DefaultGrade,
		Penalty:          model.DefaultPenalty,
		ShuffleAnswers:   true,
		AnswerOptions:    options,
	}
	if req.DefaultGrade != nil {
		q.DefaultGrade = *req.DefaultGrade
	}
	if req.Penalty != nil {
		q.Penalty = *req.Penalty
	}
	if req.ShuffleAnswers != nil {
		q.ShuffleAnswers = *req.ShuffleAnswers
	}

	if err := s.QuestionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.Audit.Record(ctx, q.TableName(), model.AuditInsert, q.ID, nil, q)
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", id, err)
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, query QuestionQuery, limit, offset int) ([]model.Question, int64, error) {
	difficulty := model.Difficulty(query.Difficulty)
	if difficulty != "" && !difficulty.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown difficulty %q", util.ErrValidation, query.Difficulty)
	}
	return s.QuestionRepo.List(ctx, repository.QuestionFilter{
		ApprovedOnly: query.ApprovedOnly,
		DocumentID:   query.DocumentID,
		Difficulty:   difficulty,
	}, limit, offset)
}

// Approve 已审批的题目原样返回；并发审批不加锁，以最后一次写入为准
func (s *QuestionService) Approve(ctx context.Context, id, approverID uint) (*model.Question, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.IsApproved {
		return before, nil
	}

	now := time.Now()
	if err := s.QuestionRepo.Approve(ctx, id, approverID, now); err != nil {
		return nil, err
	}
	after, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, before.TableName(), model.AuditUpdate, id, before, after)
	return after, nil
}

// Delete 选项随题目删除
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.QuestionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, q.TableName(), model.AuditDelete, id, q, nil)
	return nil
}
