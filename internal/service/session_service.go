package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/monitoring"
	"testgen_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type StartSessionRequest struct {
	AssignmentID *uint `json:"assignment_id"`
}

type AnswerRequest struct {
	QuestionID       uint `json:"question_id" binding:"required"`
	SelectedOptionID uint `json:"selected_option_id" binding:"required"`
}

type ResultQuery struct {
	TestID *uint
	UserID *uint
	Status string
}

type SessionService struct {
	SessionRepo    *repository.SessionRepository
	TestRepo       *repository.TestRepository
	QuestionRepo   *repository.QuestionRepository
	AssignmentRepo *repository.AssignmentRepository
	Assignments    *AssignmentService
	Audit          *AuditService

	now func() time.Time
}

func NewSessionService(
	sessions *repository.SessionRepository,
	tests *repository.TestRepository,
	questions *repository.QuestionRepository,
	assignments *repository.AssignmentRepository,
	assignmentService *AssignmentService,
	audit *AuditService,
) *SessionService {
	return &SessionService{
		SessionRepo:    sessions,
		TestRepo:       tests,
		QuestionRepo:   questions,
		AssignmentRepo: assignments,
		Assignments:    assignmentService,
		Audit:          audit,
		now:            time.Now,
	}
}

// Start 开始一次答题，受测试状态、指派和最大尝试次数约束
func (s *SessionService) Start(ctx context.Context, testID, userID uint, req *StartSessionRequest) (session *model.TestSession, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Start",
		attribute.Int64("test_id", int64(testID)),
		attribute.Int64("user_id", int64(userID)))
	defer func() { tracing.EndSpan(span, err) }()

	test, err := s.TestRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("test %d: %w", testID, err)
	}
	if !test.IsActive {
		return nil, fmt.Errorf("%w: test %d is not active", util.ErrValidation, testID)
	}

	now := s.now()
	if req != nil && req.AssignmentID != nil {
		a, err := s.AssignmentRepo.FindByID(ctx, *req.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", *req.AssignmentID, err)
		}
		if a.TestID != testID {
			return nil, fmt.Errorf("%w: assignment %d belongs to another test", util.ErrValidation, a.ID)
		}
		ok, err := s.Assignments.Targets(ctx, a, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrForbidden
		}
		if a.Deadline != nil && now.After(*a.Deadline) {
			return nil, fmt.Errorf("%w: assignment deadline has passed", util.ErrConflict)
		}
	}

	if test.MaxAttempts != nil {
		attempts, err := s.SessionRepo.CountAttempts(ctx, testID, userID)
		if err != nil {
			return nil, err
		}
		if attempts >= int64(*test.MaxAttempts) {
			return nil, fmt.Errorf("%w: %v", util.ErrConflict, util.ErrAttemptsExhausted)
		}
	}

	total, err := s.TestRepo.CountQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}

	session = &model.TestSession{
		TestID:         testID,
		UserID:         userID,
		Status:         model.SessionInProgress,
		StartedAt:      now,
		TotalQuestions: int(total),
	}
	if req != nil {
		session.AssignmentID = req.AssignmentID
	}
	if err := s.SessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.Audit.Record(ctx, session.TableName(), model.AuditInsert, session.ID, nil, session)
	return session, nil
}

// Get 学生只能查看自己的记录
func (s *SessionService) Get(ctx context.Context, id uint, caller *util.CurrentUser) (*model.TestSession, error) {
	session, err := s.SessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", id, err)
	}
	if session.UserID != caller.ID && !caller.IsStaff() {
		return nil, util.ErrForbidden
	}
	return session, nil
}

func (s *SessionService) owned(ctx context.Context, id, userID uint) (*model.TestSession, error) {
	session, err := s.SessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %d: %w", id, err)
	}
	if session.UserID != userID {
		return nil, util.ErrForbidden
	}
	if session.Status != model.SessionInProgress {
		return nil, fmt.Errorf("%w: %v", util.ErrConflict, util.ErrSessionClosed)
	}
	return session, nil
}

// Answer 记录一道题的作答，正确性由所选选项决定
func (s *SessionService) Answer(ctx context.Context, sessionID, userID uint, req *AnswerRequest) (*model.UserAnswer, error) {
	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.TestRepo.FindTestQuestion(ctx, session.TestID, req.QuestionID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrQuestionNotInTest)
		}
		return nil, err
	}

	opt, err := s.QuestionRepo.Option(ctx, req.SelectedOptionID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrOptionMismatch)
		}
		return nil, err
	}
	if opt.QuestionID != req.QuestionID {
		return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrOptionMismatch)
	}

	answer := &model.UserAnswer{
		TestSessionID:    sessionID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: opt.ID,
		IsCorrect:        opt.IsCorrect,
	}
	if err := s.SessionRepo.CreateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("answer question %d: %w", req.QuestionID, err)
	}
	return answer, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// score 按分值加权计算百分比
func score(composition []model.TestQuestion, answers []model.UserAnswer) (pct float64, correct int) {
	points := make(map[uint]float64, len(composition))
	var total float64
	for _, tq := range composition {
		points[tq.QuestionID] = tq.Points
		total += tq.Points
	}
	var earned float64
	for _, a := range answers {
		if !a.IsCorrect {
			continue
		}
		p, ok := points[a.QuestionID]
		if !ok {
			// 题目已从测试中移除
			continue
		}
		correct++
		earned += p
	}
	if total <= 0 {
		return 0, correct
	}
	return round2(earned / total * 100), correct
}

func (s *SessionService) finish(ctx context.Context, session *model.TestSession, status model.SessionStatus) (*model.TestSession, error) {
	before := *session
	before.Answers = nil

	now := s.now()
	spent := int(now.Sub(session.StartedAt).Seconds())
	if spent < 0 {
		spent = 0
	}
	after := before
	after.Status = status
	after.CompletedAt = &now
	after.TimeSpentSeconds = &spent

	if status == model.SessionCompleted {
		composition, err := s.TestRepo.Composition(ctx, session.TestID)
		if err != nil {
			return nil, err
		}
		test, err := s.TestRepo.FindByID(ctx, session.TestID)
		if err != nil {
			return nil, fmt.Errorf("test %d: %w", session.TestID, err)
		}
		pct, correct := score(composition, session.Answers)
		passed := pct >= test.PassingScore
		after.Score = &pct
		after.CorrectAnswers = correct
		after.IsPassed = &passed
	}

	if err := s.SessionRepo.Finish(ctx, &after); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			// 并发请求已经结束了该会话
			return nil, fmt.Errorf("%w: %v", util.ErrConflict, util.ErrSessionClosed)
		}
		return nil, err
	}

	passedLabel := "unknown"
	if after.IsPassed != nil {
		passedLabel = strconv.FormatBool(*after.IsPassed)
	}
	monitoring.SessionsFinished.WithLabelValues(string(status), passedLabel).Inc()
	s.Audit.Record(ctx, session.TableName(), model.AuditUpdate, session.ID, &before, &after)

	after.Answers = session.Answers
	return &after, nil
}

// Complete 计算成绩，直接指派给个人的指派同时标记为已完成
func (s *SessionService) Complete(ctx context.Context, sessionID, userID uint) (result *model.TestSession, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Complete", attribute.Int64("session_id", int64(sessionID)))
	defer func() { tracing.EndSpan(span, err) }()

	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	result, err = s.finish(ctx, session, model.SessionCompleted)
	if err != nil {
		return nil, err
	}
	if result.AssignmentID == nil {
		return result, nil
	}
	a, err := s.AssignmentRepo.FindByID(ctx, *result.AssignmentID)
	if errors.Is(err, util.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	// 分组指派的完成状态由成员各自的答题记录得出
	if a.UserID != nil {
		if err := s.AssignmentRepo.MarkCompleted(ctx, a.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SessionService) Abandon(ctx context.Context, sessionID, userID uint) (*model.TestSession, error) {
	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, session, model.SessionAbandoned)
}

func (s *SessionService) MyResults(ctx context.Context, userID uint, limit, offset int) ([]model.TestSession, int64, error) {
	return s.SessionRepo.List(ctx, repository.SessionFilter{UserID: &userID}, limit, offset)
}

func (s *SessionService) Results(ctx context.Context, q *ResultQuery, limit, offset int) ([]model.TestSession, int64, error) {
	status := model.SessionStatus(q.Status)
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", util.ErrValidation, q.Status)
	}
	return s.SessionRepo.List(ctx, repository.SessionFilter{
		UserID: q.UserID,
		TestID: q.TestID,
		Status: status,
	}, limit, offset)
}
