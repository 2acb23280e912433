package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// SessionFilter 零值字段不参与过滤
type SessionFilter struct {
	UserID *uint
	TestID *uint
	Status model.SessionStatus
}

func (r *SessionRepository) Create(ctx context.Context, s *model.TestSession) error {
	return translateError(r.DB.WithContext(ctx).Omit("Answers").Create(s).Error)
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&s, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (r *SessionRepository) List(ctx context.Context, f SessionFilter, limit, offset int) ([]model.TestSession, int64, error) {
	var sessions []model.TestSession
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.TestSession{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.TestID != nil {
		query = query.Where("test_id = ?", *f.TestID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("started_at desc, id desc").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, translateError(err)
}

// CountAttempts 统计已完成和进行中的尝试，放弃的不计入
func (r *SessionRepository) CountAttempts(ctx context.Context, testID, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.TestSession{}).
		Where("test_id = ? AND user_id = ?", testID, userID).
		Where("status IN ?", []model.SessionStatus{model.SessionInProgress, model.SessionCompleted}).
		Count(&count).Error
	return count, translateError(err)
}

// CreateAnswer 同一题目重复作答返回 ErrConflict
func (r *SessionRepository) CreateAnswer(ctx context.Context, a *model.UserAnswer) error {
	return translateError(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *SessionRepository) Answers(ctx context.Context, sessionID uint) ([]model.UserAnswer, error) {
	var answers []model.UserAnswer
	err := r.DB.WithContext(ctx).
		Where("test_session_id = ?", sessionID).
		Order("id asc").
		Find(&answers).Error
	return answers, translateError(err)
}

// Finish 写入结束状态和成绩，只对进行中的记录生效
func (r *SessionRepository) Finish(ctx context.Context, s *model.TestSession) error {
	return mustAffect(r.DB.WithContext(ctx).Model(&model.TestSession{}).
		Where("id = ? AND status = ?", s.ID, model.SessionInProgress).
		Updates(map[string]interface{}{
			"status":             s.Status,
			"completed_at":       s.CompletedAt,
			"time_spent_seconds": s.TimeSpentSeconds,
			"score":              s.Score,
			"correct_answers":    s.CorrectAnswers,
			"is_passed":          s.IsPassed,
		}))
}

// Delete 作答记录随会话删除
func (r *SessionRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_session_id = ?", id).Delete(&model.UserAnswer{}).Error; err != nil {
			return translateError(err)
		}
		return mustAffect(tx.Delete(&model.TestSession{}, id))
	})
}
