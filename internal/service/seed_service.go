package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Fixtures struct {
	Roles []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"roles"`
	Users []struct {
		Email    string   `yaml:"email"`
		FullName string   `yaml:"full_name"`
		Password string   `yaml:"password"`
		Roles    []string `yaml:"roles"`
	} `yaml:"users"`
	Groups []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Members     []string `yaml:"members"`
	} `yaml:"groups"`
}

func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &f, nil
}

// SeedService 从 YAML 导入初始数据，已存在的记录跳过，可以重复执行
type SeedService struct {
	Users  *UserService
	Roles  *RoleService
	Groups *GroupService
}

func NewSeedService(users *UserService, roles *RoleService, groups *GroupService) *SeedService {
	return &SeedService{Users: users, Roles: roles, Groups: groups}
}

func (s *SeedService) Apply(ctx context.Context, f *Fixtures) error {
	for _, r := range f.Roles {
		_, err := s.Roles.Create(ctx, &RoleRequest{Name: r.Name, Description: r.Description})
		if err != nil && !errors.Is(err, util.ErrConflict) {
			return err
		}
	}

	for _, u := range f.Users {
		if _, err := s.Users.UserRepo.FindByEmail(ctx, u.Email); err == nil {
			logger.Log.Debug("Seed user exists", zap.String("email", u.Email))
			continue
		} else if !errors.Is(err, util.ErrNotFound) {
			return err
		}
		_, err := s.Users.Create(ctx, &CreateUserRequest{
			Email:    u.Email,
			FullName: u.FullName,
			Password: u.Password,
			Roles:    u.Roles,
		})
		if err != nil {
			return err
		}
		logger.Log.Info("Seeded user", zap.String("email", u.Email))
	}

	for _, g := range f.Groups {
		group, err := s.Groups.GroupRepo.FindByName(ctx, g.Name)
		if errors.Is(err, util.ErrNotFound) {
			group, err = s.Groups.Create(ctx, &GroupRequest{Name: g.Name, Description: g.Description}, 0)
		}
		if err != nil {
			return err
		}
		for _, email := range g.Members {
			user, err := s.Users.UserRepo.FindByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("group %s member %s: %w", g.Name, email, err)
			}
			if _, err := s.Groups.AddMember(ctx, group.ID, user.ID); err != nil && !errors.Is(err, util.ErrConflict) {
				return err
			}
		}
	}
	return nil
}
