package service

import (
	"context"
	"fmt"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
)

type GroupRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type GroupService struct {
	GroupRepo *repository.GroupRepository
	UserRepo  *repository.UserRepository
	Audit     *AuditService
}

func NewGroupService(groups *repository.GroupRepository, users *repository.UserRepository, audit *AuditService) *GroupService {
	return &GroupService{GroupRepo: groups, UserRepo: users, Audit: audit}
}

func (s *GroupService) Create(ctx context.Context, req *GroupRequest, creatorID uint) (*model.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is empty", util.ErrValidation)
	}
	group := &model.Group{Name: name, Description: req.Description}
	if creatorID != 0 {
		group.CreatedBy = &creatorID
	}
	if err := s.GroupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group %s: %w", name, err)
	}
	s.Audit.Record(ctx, group.TableName(), model.AuditInsert, group.ID, nil, group)
	return group, nil
}

func (s *GroupService) Get(ctx context.Context, id uint) (*model.Group, error) {
	group, err := s.GroupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("group %d: %w", id, err)
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context, limit, offset int) ([]model.Group, int64, error) {
	return s.GroupRepo.List(ctx, limit, offset)
}

// Delete 成员关系和指派给该分组的测试随之删除
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	group, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.GroupRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, group.TableName(), model.AuditDelete, id, group, nil)
	return nil
}

// AddMember 重复加入返回 ErrConflict
func (s *GroupService) AddMember(ctx context.Context, groupID, userID uint) (*model.UserGroup, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	ug, err := s.GroupRepo.AddMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("add user %d to group %d: %w", userID, groupID, err)
	}
	s.Audit.Record(ctx, ug.TableName(), model.AuditInsert, ug.ID, nil, ug)
	return ug, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID uint) error {
	ug, err := s.GroupRepo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("group %d member %d: %w", groupID, userID, err)
	}
	s.Audit.Record(ctx, ug.TableName(), model.AuditDelete, ug.ID, ug, nil)
	return nil
}

func (s *GroupService) Members(ctx context.Context, groupID uint, limit, offset int) ([]model.User, int64, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.GroupRepo.Members(ctx, groupID, limit, offset)
}
