package service

import (
	"context"
	"fmt"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"time"
)

// AssignmentRequest user_id 和 group_id 至少提供一个
type AssignmentRequest struct {
	UserID   *uint      `json:"user_id"`
	GroupID  *uint      `json:"group_id"`
	Deadline *time.Time `json:"deadline"`
}

type AssignmentService struct {
	AssignmentRepo *repository.AssignmentRepository
	TestRepo       *repository.TestRepository
	UserRepo       *repository.UserRepository
	GroupRepo      *repository.GroupRepository
	Audit          *AuditService
}

func NewAssignmentService(
	assignments *repository.AssignmentRepository,
	tests *repository.TestRepository,
	users *repository.UserRepository,
	groups *repository.GroupRepository,
	audit *AuditService,
) *AssignmentService {
	return &AssignmentService{
		AssignmentRepo: assignments,
		TestRepo:       tests,
		UserRepo:       users,
		GroupRepo:      groups,
		Audit:          audit,
	}
}

func (s *AssignmentService) Create(ctx context.Context, testID uint, req *AssignmentRequest, assignerID uint) (*model.TestAssignment, error) {
	if req.UserID == nil && req.GroupID == nil {
		return nil, fmt.Errorf("%w: %v", util.ErrValidation, util.ErrAssignmentTarget)
	}
	if _, err := s.TestRepo.FindByID(ctx, testID); err != nil {
		return nil, fmt.Errorf("test %d: %w", testID, err)
	}
	if req.UserID != nil {
		if _, err := s.UserRepo.FindByID(ctx, *req.UserID); err != nil {
			return nil, fmt.Errorf("user %d: %w", *req.UserID, err)
		}
	}
	if req.GroupID != nil {
		if _, err := s.GroupRepo.FindByID(ctx, *req.GroupID); err != nil {
			return nil, fmt.Errorf("group %d: %w", *req.GroupID, err)
		}
	}

	a := &model.TestAssignment{
		TestID:   testID,
		UserID:   req.UserID,
		GroupID:  req.GroupID,
		Deadline: req.Deadline,
	}
	if assignerID != 0 {
		a.AssignedBy = &assignerID
	}
	if err := s.AssignmentRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("assign test %d: %w", testID, err)
	}
	s.Audit.Record(ctx, a.TableName(), model.AuditInsert, a.ID, nil, a)
	return a, nil
}

func (s *AssignmentService) ListByTest(ctx context.Context, testID uint, limit, offset int) ([]model.TestAssignment, int64, error) {
	if _, err := s.TestRepo.FindByID(ctx, testID); err != nil {
		return nil, 0, fmt.Errorf("test %d: %w", testID, err)
	}
	return s.AssignmentRepo.ListByTest(ctx, testID, limit, offset)
}

// ListMine 包括直接指派和通过分组指派的测试
func (s *AssignmentService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]model.TestAssignment, int64, error) {
	groupIDs, err := s.GroupRepo.GroupIDsOfUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.AssignmentRepo.ListForUser(ctx, userID, groupIDs, limit, offset)
}

// Targets 判断指派是否面向该用户
func (s *AssignmentService) Targets(ctx context.Context, a *model.TestAssignment, userID uint) (bool, error) {
	if a.UserID != nil && *a.UserID == userID {
		return true, nil
	}
	if a.GroupID != nil {
		return s.GroupRepo.IsMember(ctx, *a.GroupID, userID)
	}
	return false, nil
}

// Complete 被指派人或教师可以标记完成；分组指派只能由教师关闭，成员通过完成答题来完成
func (s *AssignmentService) Complete(ctx context.Context, id uint, caller *util.CurrentUser) (*model.TestAssignment, error) {
	a, err := s.AssignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assignment %d: %w", id, err)
	}
	if !caller.IsStaff() {
		ok, err := s.Targets(ctx, a, caller.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrForbidden
		}
		if a.UserID == nil {
			return nil, fmt.Errorf("%w: group assignment %d completes per member through a test session", util.ErrValidation, id)
		}
	}
	if a.IsCompleted {
		return a, nil
	}
	if err := s.AssignmentRepo.MarkCompleted(ctx, id); err != nil {
		return nil, err
	}
	after := *a
	after.IsCompleted = true
	s.Audit.Record(ctx, a.TableName(), model.AuditUpdate, id, a, &after)
	return &after, nil
}

func (s *AssignmentService) Delete(ctx context.Context, id uint) error {
	a, err := s.AssignmentRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("assignment %d: %w", id, err)
	}
	if err := s.AssignmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, a.TableName(), model.AuditDelete, id, a, nil)
	return nil
}
