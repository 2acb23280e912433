package service

import (
	"context"
	"fmt"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	FullName string   `json:"full_name" binding:"required"`
	Password string   `json:"password" binding:"required,min=6"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles"`
}

type UserService struct {
	UserRepo  *repository.UserRepository
	RoleRepo  *repository.RoleRepository
	GroupRepo *repository.GroupRepository
	Audit     *AuditService
}

func NewUserService(users *repository.UserRepository, roles *repository.RoleRepository, groups *repository.GroupRepository, audit *AuditService) *UserService {
	return &UserService{UserRepo: users, RoleRepo: roles, GroupRepo: groups, Audit: audit}
}

// Create 创建用户并按名称分配角色，密码只保存 bcrypt 哈希
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*UserView, error) {
	seen := make(map[string]bool, len(req.Roles))
	names := make([]string, 0, len(req.Roles))
	roleIDs := make([]uint, 0, len(req.Roles))
	for _, name := range req.Roles {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		role, err := s.RoleRepo.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown role %q", util.ErrValidation, name)
		}
		names = append(names, role.Name)
		roleIDs = append(roleIDs, role.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        strings.TrimSpace(req.Email),
		FullName:     req.FullName,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.UserRepo.CreateWithRoles(ctx, user, roleIDs); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	s.Audit.Record(ctx, user.TableName(), model.AuditInsert, user.ID, nil, user)

	view := newUserView(user, names)
	return &view, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*UserView, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	roles, err := s.UserRepo.RoleNames(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newUserView(user, roles)
	return &view, nil
}

func (s *UserService) List(ctx context.Context, active *bool, limit, offset int) ([]UserView, int64, error) {
	users, total, err := s.UserRepo.List(ctx, active, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	roles, err := s.UserRepo.RoleNamesByUsers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	views := make([]UserView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i], roles[users[i].ID])
	}
	return views, total, nil
}

func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*UserView, error) {
	before, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	if err := s.UserRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	after := *before
	after.IsActive = active
	s.Audit.Record(ctx, before.TableName(), model.AuditUpdate, id, before, &after)
	return s.Get(ctx, id)
}

// Delete 删除用户，关联数据按外键规则级联或置空
func (s *UserService) Delete(ctx context.Context, id uint) error {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("user %d: %w", id, err)
	}
	if err := s.UserRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, user.TableName(), model.AuditDelete, id, user, nil)
	return nil
}

func (s *UserService) Roles(ctx context.Context, userID uint) ([]model.Role, error) {
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return s.RoleRepo.RolesOfUser(ctx, userID)
}

// AssignRole 重复分配返回 ErrConflict
func (s *UserService) AssignRole(ctx context.Context, userID, roleID uint) (*model.UserRole, error) {
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	if _, err := s.RoleRepo.FindByID(ctx, roleID); err != nil {
		return nil, fmt.Errorf("role %d: %w", roleID, err)
	}
	ur, err := s.RoleRepo.Assign(ctx, userID, roleID)
	if err != nil {
		return nil, fmt.Errorf("assign role %d to user %d: %w", roleID, userID, err)
	}
	s.Audit.Record(ctx, ur.TableName(), model.AuditInsert, ur.ID, nil, ur)
	return ur, nil
}

func (s *UserService) RevokeRole(ctx context.Context, userID, roleID uint) error {
	ur, err := s.RoleRepo.Revoke(ctx, userID, roleID)
	if err != nil {
		return fmt.Errorf("user %d role %d: %w", userID, roleID, err)
	}
	s.Audit.Record(ctx, ur.TableName(), model.AuditDelete, ur.ID, ur, nil)
	return nil
}

func (s *UserService) Groups(ctx context.Context, userID uint) ([]model.Group, error) {
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return s.GroupRepo.GroupsOfUser(ctx, userID)
}
