package service

import (
	"context"
	"fmt"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
)

type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type QuestionStats struct {
	Total        int64            `json:"total"`
	Approved     int64            `json:"approved"`
	ByDifficulty map[string]int64 `json:"by_difficulty"`
}

type TestStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type SessionStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
}

type DocumentStats struct {
	Total     int64 `json:"total"`
	Processed int64 `json:"processed"`
}

// swagger:model Overview
type Overview struct {
	Users     UserStats     `json:"users"`
	Questions QuestionStats `json:"questions"`
	Tests     TestStats     `json:"tests"`
	Sessions  SessionStats  `json:"sessions"`
	Documents DocumentStats `json:"documents"`
}

// swagger:model Health
type Health struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Users     int64  `json:"users"`
	Questions int64  `json:"questions"`
	Tests     int64  `json:"tests"`
}

type StatsService struct {
	Repo *repository.StatsRepository
}

func NewStatsService(repo *repository.StatsRepository) *StatsService {
	return &StatsService{Repo: repo}
}

type counter struct {
	dst   *int64
	model interface{}
	query string
	args  []interface{}
}

func (s *StatsService) run(ctx context.Context, counters []counter) error {
	for _, c := range counters {
		n, err := s.Repo.Count(ctx, c.model, c.query, c.args...)
		if err != nil {
			return err
		}
		*c.dst = n
	}
	return nil
}

// Overview 各项数字分别查询，不保证同一时刻的一致快照
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	o := &Overview{Questions: QuestionStats{ByDifficulty: make(map[string]int64, len(model.Difficulties))}}
	counters := []counter{
		{dst: &o.Users.Total, model: &model.User{}},
		{dst: &o.Users.Active, model: &model.User{}, query: "is_active = ?", args: []interface{}{true}},
		{dst: &o.Questions.Total, model: &model.Question{}},
		{dst: &o.Questions.Approved, model: &model.Question{}, query: "is_approved = ?", args: []interface{}{true}},
		{dst: &o.Tests.Total, model: &model.Test{}},
		{dst: &o.Tests.Active, model: &model.Test{}, query: "is_active = ?", args: []interface{}{true}},
		{dst: &o.Sessions.Total, model: &model.TestSession{}},
		{dst: &o.Sessions.Completed, model: &model.TestSession{}, query: "status = ?", args: []interface{}{model.SessionCompleted}},
		{dst: &o.Sessions.InProgress, model: &model.TestSession{}, query: "status = ?", args: []interface{}{model.SessionInProgress}},
		{dst: &o.Documents.Total, model: &model.SourceDocument{}},
		{dst: &o.Documents.Processed, model: &model.SourceDocument{}, query: "status = ?", args: []interface{}{model.DocumentCompleted}},
	}
	if err := s.run(ctx, counters); err != nil {
		return nil, err
	}
	for _, d := range model.Difficulties {
		n, err := s.Repo.Count(ctx, &model.Question{}, "difficulty = ?", d)
		if err != nil {
			return nil, err
		}
		o.Questions.ByDifficulty[string(d)] = n
	}
	return o, nil
}

// Health 连接失败时返回 ErrUnavailable
func (s *StatsService) Health(ctx context.Context) (*Health, error) {
	h := &Health{Status: "healthy", Database: "connected"}
	if err := s.Repo.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnavailable, err)
	}
	var err error
	if h.Users, err = s.Repo.Users(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnavailable, err)
	}
	if h.Questions, err = s.Repo.Questions(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnavailable, err)
	}
	if h.Tests, err = s.Repo.Tests(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUnavailable, err)
	}
	return h, nil
}
