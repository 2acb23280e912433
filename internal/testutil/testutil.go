// Package testutil opens a migrated SQLite database for package tests and
// seeds the rows most tests need.
package testutil

import (
	"fmt"
	"path/filepath"
	"testgen_backend/internal/config"
	"testgen_backend/internal/model"
	"testgen_backend/pkg/database"
	"testing"

	"gorm.io/gorm"
)

// DB 每个测试一个独立的 SQLite 文件，外键开启
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Role(t *testing.T, db *gorm.DB, name string) *model.Role {
	t.Helper()
	var role model.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		t.Fatalf("role %s: %v", name, err)
	}
	return &role
}

// SeedUser 创建激活用户并分配角色
func SeedUser(t *testing.T, db *gorm.DB, email string, roles ...string) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: "User " + email, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	for _, name := range roles {
		ur := &model.UserRole{UserID: user.ID, RoleID: Role(t, db, name).ID}
		if err := db.Omit("User", "Role").Create(ur).Error; err != nil {
			t.Fatalf("assign role %s: %v", name, err)
		}
	}
	return user
}

func SeedGroup(t *testing.T, db *gorm.DB, name string, members ...*model.User) *model.Group {
	t.Helper()
	group := &model.Group{Name: name}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("seed group %s: %v", name, err)
	}
	for _, u := range members {
		if err := db.Omit("User", "Group").Create(&model.UserGroup{UserID: u.ID, GroupID: group.ID}).Error; err != nil {
			t.Fatalf("add member %d: %v", u.ID, err)
		}
	}
	return group
}

// SeedQuestion 创建带 n 个选项的题目，第 correct 个（从 1 开始）为正确答案
func SeedQuestion(t *testing.T, db *gorm.DB, creatorID uint, n, correct int, approved bool) *model.Question {
	t.Helper()
	q := &model.Question{
		QuestionText:   "What is question?",
		CreatorID:      creatorID,
		IsApproved:     approved,
		DefaultGrade:   model.DefaultGrade,
		Penalty:        model.DefaultPenalty,
		ShuffleAnswers: true,
	}
	for i := 1; i <= n; i++ {
		q.AnswerOptions = append(q.AnswerOptions, model.AnswerOption{
			AnswerText:  fmt.Sprintf("option %d", i),
			IsCorrect:   i == correct,
			OptionOrder: i,
		})
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

// SeedTest 创建启用的测试，题目按参数顺序加入，每题 1 分
func SeedTest(t *testing.T, db *gorm.DB, creatorID uint, questions ...*model.Question) *model.Test {
	t.Helper()
	test := &model.Test{
		Title:            "Sample test",
		PassingScore:     model.DefaultPassingScore,
		ShuffleQuestions: true,
		ShuffleAnswers:   true,
		ShowResults:      true,
		IsActive:         true,
		CreatorID:        creatorID,
	}
	if err := db.Create(test).Error; err != nil {
		t.Fatalf("seed test: %v", err)
	}
	for i, q := range questions {
		tq := &model.TestQuestion{TestID: test.ID, QuestionID: q.ID, QuestionOrder: i + 1, Points: model.DefaultPoints}
		if err := db.Omit("Question").Create(tq).Error; err != nil {
			t.Fatalf("add question %d: %v", q.ID, err)
		}
	}
	return test
}

// CorrectOption 返回题目的正确选项
func CorrectOption(t *testing.T, q *model.Question) model.AnswerOption {
	t.Helper()
	for _, o := range q.AnswerOptions {
		if o.IsCorrect {
			return o
		}
	}
	t.Fatalf("question %d has no correct option", q.ID)
	return model.AnswerOption{}
}

// WrongOption 返回题目的第一个错误选项
func WrongOption(t *testing.T, q *model.Question) model.AnswerOption {
	t.Helper()
	for _, o := range q.AnswerOptions {
		if !o.IsCorrect {
			return o
		}
	}
	t.Fatalf("question %d has no wrong option", q.ID)
	return model.AnswerOption{}
}
