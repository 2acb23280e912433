package service

import (
	"context"
	"fmt"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
)

type TestRequest struct {
	Title              string   `json:"title" binding:"required,max=255"`
	Description        string   `json:"description"`
	TimeLimitMinutes   *int     `json:"time_limit_minutes" binding:"omitempty,min=1"`
	PassingScore       *float64 `json:"passing_score" binding:"omitempty,min=0,max=100"`
	MaxAttempts        *int     `json:"max_attempts" binding:"omitempty,min=1"`
	ShuffleQuestions   *bool    `json:"shuffle_questions"`
	ShuffleAnswers     *bool    `json:"shuffle_answers"`
	ShowResults        *bool    `json:"show_results"`
	ShowCorrectAnswers *bool    `json:"show_correct_answers"`
	IsActive           *bool    `json:"is_active"`
}

type TestQuestionRequest struct {
	QuestionID    uint     `json:"question_id" binding:"required"`
	QuestionOrder int      `json:"question_order" binding:"omitempty,min=1"` // 为 0 时追加到末尾
	Points        *float64 `json:"points" binding:"omitempty,min=0"`
}

// swagger:model TestView
type TestView struct {
	model.Test
	QuestionsCount int64 `json:"questions_count"`
}

// TestAnswerItem IsCorrect 在测试不公开答案时为 null
type TestAnswerItem struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct"`
	Order     int    `json:"order"`
}

type TestQuestionItem struct {
	ID         uint              `json:"id"`
	Question   string            `json:"question"`
	Answers    []TestAnswerItem  `json:"answers"`
	Difficulty *model.Difficulty `json:"difficulty"`
	Points     float64           `json:"points"`
	Order      int               `json:"order"`
}

// swagger:model TestQuestionsView
type TestQuestionsView struct {
	TestID         uint               `json:"test_id"`
	TestTitle      string             `json:"test_title"`
	Questions      []TestQuestionItem `json:"questions"`
	TotalQuestions int                `json:"total_questions"`
}

type TestService struct {
	TestRepo     *repository.TestRepository
	QuestionRepo *repository.QuestionRepository
	Audit        *AuditService
}

func NewTestService(tests *repository.TestRepository, questions *repository.QuestionRepository, audit *AuditService) *TestService {
	return &TestService{TestRepo: tests, QuestionRepo: questions, Audit: audit}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (s *TestService) Create(ctx context.Context, req *TestRequest, creatorID uint) (*TestView, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is empty", util.ErrValidation)
	}
	test := &model.Test{
		Title:              title,
		Description:        req.Description,
		TimeLimitMinutes:   req.TimeLimitMinutes,
		PassingScore:       model.DefaultPassingScore,
		MaxAttempts:        req.MaxAttempts,
		ShuffleQuestions:   boolOr(req.ShuffleQuestions, true),
		ShuffleAnswers:     boolOr(req.ShuffleAnswers, true),
		ShowResults:        boolOr(req.ShowResults, true),
		ShowCorrectAnswers: boolOr(req.ShowCorrectAnswers, false),
		IsActive:           boolOr(req.IsActive, true),
		CreatorID:          creatorID,
	}
	if req.PassingScore != nil {
		test.PassingScore = *req.PassingScore
	}
	if err := s.TestRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	s.Audit.Record(ctx, test.TableName(), model.AuditInsert, test.ID, nil, test)
	return &TestView{Test: *test}, nil
}

func (s *TestService) find(ctx context.Context, id uint) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("test %d: %w", id, err)
	}
	return test, nil
}

func (s *TestService) Get(ctx context.Context, id uint) (*TestView, error) {
	test, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.TestRepo.CountQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TestView{Test: *test, QuestionsCount: count}, nil
}

func (s *TestService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]TestView, int64, error) {
	tests, total, err := s.TestRepo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, len(tests))
	for i := range tests {
		ids[i] = tests[i].ID
	}
	counts, err := s.TestRepo.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	views := make([]TestView, len(tests))
	for i := range tests {
		views[i] = TestView{Test: tests[i], QuestionsCount: counts[tests[i].ID]}
	}
	return views, total, nil
}

// Delete 题目组成、指派和答题会话随之删除
func (s *TestService) Delete(ctx context.Context, id uint) error {
	test, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.TestRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, test.TableName(), model.AuditDelete, id, test, nil)
	return nil
}

// AddQuestion 同一题目只能加入一次
func (s *TestService) AddQuestion(ctx context.Context, testID uint, req *TestQuestionRequest) (*model.TestQuestion, error) {
	if _, err := s.find(ctx, testID); err != nil {
		return nil, err
	}
	if _, err := s.QuestionRepo.FindByID(ctx, req.QuestionID); err != nil {
		return nil, fmt.Errorf("question %d: %w", req.QuestionID, err)
	}

	tq := &model.TestQuestion{
		TestID:        testID,
		QuestionID:    req.QuestionID,
		QuestionOrder: req.QuestionOrder,
		Points:        model.DefaultPoints,
	}
	if req.Points != nil {
		tq.Points = *req.Points
	}
	if tq.QuestionOrder == 0 {
		count, err := s.TestRepo.CountQuestions(ctx, testID)
		if err != nil {
			return nil, err
		}
		tq.QuestionOrder = int(count) + 1
	}
	if err := s.TestRepo.AddQuestion(ctx, tq); err != nil {
		return nil, fmt.Errorf("add question %d to test %d: %w", req.QuestionID, testID, err)
	}
	s.Audit.Record(ctx, tq.TableName(), model.AuditInsert, tq.ID, nil, tq)
	return tq, nil
}

func (s *TestService) RemoveQuestion(ctx context.Context, testID, questionID uint) error {
	tq, err := s.TestRepo.FindTestQuestion(ctx, testID, questionID)
	if err != nil {
		return fmt.Errorf("test %d question %d: %w", testID, questionID, err)
	}
	if err := s.TestRepo.RemoveQuestion(ctx, testID, questionID); err != nil {
		return err
	}
	s.Audit.Record(ctx, tq.TableName(), model.AuditDelete, tq.ID, tq, nil)
	return nil
}

// Questions 按 question_order 返回题目，show_correct_answers 关闭时隐藏正确答案
func (s *TestService) Questions(ctx context.Context, testID uint) (*TestQuestionsView, error) {
	test, err := s.find(ctx, testID)
	if err != nil {
		return nil, err
	}
	tqs, err := s.TestRepo.Questions(ctx, testID)
	if err != nil {
		return nil, err
	}

	items := make([]TestQuestionItem, 0, len(tqs))
	for _, tq := range tqs {
		if tq.Question == nil {
			continue
		}
		answers := make([]TestAnswerItem, 0, len(tq.Question.AnswerOptions))
		for _, opt := range tq.Question.AnswerOptions {
			item := TestAnswerItem{ID: opt.ID, Text: opt.AnswerText, Order: opt.OptionOrder}
			if test.ShowCorrectAnswers {
				correct := opt.IsCorrect
				item.IsCorrect = &correct
			}
			answers = append(answers, item)
		}
		items = append(items, TestQuestionItem{
			ID:         tq.Question.ID,
			Question:   tq.Question.QuestionText,
			Answers:    answers,
			Difficulty: tq.Question.Difficulty,
			Points:     tq.Points,
			Order:      tq.QuestionOrder,
		})
	}
	return &TestQuestionsView{
		TestID:         test.ID,
		TestTitle:      test.Title,
		Questions:      items,
		TotalQuestions: len(items),
	}, nil
}
