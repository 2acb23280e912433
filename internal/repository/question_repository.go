package repository

import (
	"context"
	"testgen_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// QuestionFilter 题目列表过滤条件，零值表示不过滤
type QuestionFilter struct {
	ApprovedOnly bool
	DocumentID   *uint
	Difficulty   model.Difficulty
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order("option_order asc, id asc")
}

// Create 在一个事务里写入题目和选项
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return translateError(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createQuestion(tx, q)
	}))
}

// CreateBatch 批量导入，任意一道题失败则全部回滚
func (r *QuestionRepository) CreateBatch(ctx context.Context, qs []*model.Question) error {
	return translateError(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range qs {
			if err := createQuestion(tx, q); err != nil {
				return err
			}
		}
		return nil
	}))
}

func createQuestion(tx *gorm.DB, q *model.Question) error {
	options := q.AnswerOptions
	if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
		return err
	}
	for i := range options {
		options[i].QuestionID = q.ID
	}
	if len(options) > 0 {
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
	}
	q.AnswerOptions = options
	return nil
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).
		Preload("AnswerOptions", preloadOptions).
		First(&q, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &q, nil
}

// FindByIDs 按 id 升序返回存在的题目，不存在的 id 被忽略
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.WithContext(ctx).
		Preload("AnswerOptions", preloadOptions).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&qs).Error
	return qs, translateError(err)
}

func (r *QuestionRepository) ListApproved(ctx context.Context) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).
		Preload("AnswerOptions", preloadOptions).
		Where("is_approved = ?", true).
		Order("id asc").
		Find(&qs).Error
	return qs, translateError(err)
}

func (r *QuestionRepository) List(ctx context.Context, f QuestionFilter, limit, offset int) ([]model.Question, int64, error) {
	var qs []model.Question
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Question{})
	if f.ApprovedOnly {
		query = query.Where("is_approved = ?", true)
	}
	if f.DocumentID != nil {
		query = query.Where("source_document_id = ?", *f.DocumentID)
	}
	if f.Difficulty != "" {
		query = query.Where("difficulty = ?", f.Difficulty)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Preload("AnswerOptions", preloadOptions).
		Order("id asc").
		Offset(offset).Limit(limit).
		Find(&qs).Error
	return qs, total, translateError(err)
}

// Approve 写入审批状态，重复审批以最后一次为准
func (r *QuestionRepository) Approve(ctx context.Context, id, approverID uint, at time.Time) error {
	return mustAffect(r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_approved": true,
			"approved_by": approverID,
			"approved_at": at,
		}))
}

// Delete 先删选项再删题目，外键级联作为兜底
func (r *QuestionRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.AnswerOption{}).Error; err != nil {
			return translateError(err)
		}
		return mustAffect(tx.Delete(&model.Question{}, id))
	})
}

func (r *QuestionRepository) Option(ctx context.Context, optionID uint) (*model.AnswerOption, error) {
	var opt model.AnswerOption
	if err := r.DB.WithContext(ctx).First(&opt, optionID).Error; err != nil {
		return nil, translateError(err)
	}
	return &opt, nil
}
