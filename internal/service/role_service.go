package service

import (
	"context"
	"fmt"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
)

type RoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=255"`
}

type RoleService struct {
	RoleRepo *repository.RoleRepository
	Audit    *AuditService
}

func NewRoleService(roles *repository.RoleRepository, audit *AuditService) *RoleService {
	return &RoleService{RoleRepo: roles, Audit: audit}
}

func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	return s.RoleRepo.List(ctx)
}

// Create 角色名重复返回 ErrConflict
func (s *RoleService) Create(ctx context.Context, req *RoleRequest) (*model.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is empty", util.ErrValidation)
	}
	role := &model.Role{Name: name, Description: req.Description}
	if err := s.RoleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role %s: %w", name, err)
	}
	s.Audit.Record(ctx, role.TableName(), model.AuditInsert, role.ID, nil, role)
	return role, nil
}

// Delete 用户与该角色的关联随之删除
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	role, err := s.RoleRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("role %d: %w", id, err)
	}
	if err := s.RoleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, role.TableName(), model.AuditDelete, id, role, nil)
	return nil
}

func (s *RoleService) Users(ctx context.Context, roleID uint, limit, offset int) ([]model.User, int64, error) {
	if _, err := s.RoleRepo.FindByID(ctx, roleID); err != nil {
		return nil, 0, fmt.Errorf("role %d: %w", roleID, err)
	}
	return s.RoleRepo.UsersWithRole(ctx, roleID, limit, offset)
}
