package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testgen_backend/internal/config"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"
	"testgen_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// swagger:model UserView
type UserView struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *model.User, roles []string) UserView {
	if roles == nil {
		roles = []string{}
	}
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// swagger:model LoginResult
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        UserView `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Issuer   util.CredentialIssuer
}

func NewAuthService(users *repository.UserRepository, issuer util.CredentialIssuer) *AuthService {
	return &AuthService{UserRepo: users, Issuer: issuer}
}

// NewCredentialIssuer 按 auth.scheme 选择凭证实现
func NewCredentialIssuer(cfg *config.AuthConfig) util.CredentialIssuer {
	if cfg.Scheme == "jwt" {
		return util.NewJWTIssuer(cfg.Secret, cfg.ExpireTime)
	}
	logger.Log.Warn("Using plain credentials: tokens are unsigned and never expire")
	return util.PlainIssuer{}
}

// Login 只校验邮箱对应的账户存在且激活，不校验密码
func (s *AuthService) Login(ctx context.Context, email string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			monitoring.LoginCounter.WithLabelValues("unknown").Inc()
			return nil, fmt.Errorf("%w: user not found", util.ErrUnauthenticated)
		}
		return nil, err
	}
	if !user.IsActive {
		monitoring.LoginCounter.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("%w: user is inactive", util.ErrUnauthenticated)
	}

	roles, err := s.UserRepo.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, err := s.Issuer.Issue(user)
	if err != nil {
		return nil, err
	}

	monitoring.LoginCounter.WithLabelValues("success").Inc()
	logger.Log.Info("User logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUserView(user, roles),
	}, nil
}

// Authenticate 解析凭证并确认账户仍然存在且激活
func (s *AuthService) Authenticate(ctx context.Context, credential string) (*util.CurrentUser, error) {
	id, err := s.Issuer.Parse(credential)
	if err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUnauthenticated
		}
		return nil, err
	}
	if user.Email != id.Email {
		return nil, util.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", util.ErrUnauthenticated)
	}

	roles, err := s.UserRepo.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &util.CurrentUser{ID: user.ID, Email: user.Email, Roles: roles}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*UserView, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	roles, err := s.UserRepo.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	view := newUserView(user, roles)
	return &view, nil
}
