package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(ctx context.Context, test *model.Test) error {
	return translateError(r.DB.WithContext(ctx).Create(test).Error)
}

func (r *TestRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.DB.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

// List 按创建时间倒序
func (r *TestRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Test, int64, error) {
	var tests []model.Test
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Test{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&tests).Error
	return tests, total, translateError(err)
}

// Delete 题目组成、指派和答题记录通过外键级联删除
func (r *TestRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.Test{}, id))
}

// AddQuestion 同一题目重复加入返回 ErrConflict
func (r *TestRepository) AddQuestion(ctx context.Context, tq *model.TestQuestion) error {
	return translateError(r.DB.WithContext(ctx).Omit("Question").Create(tq).Error)
}

func (r *TestRepository) RemoveQuestion(ctx context.Context, testID, questionID uint) error {
	return mustAffect(r.DB.WithContext(ctx).
		Where("test_id = ? AND question_id = ?", testID, questionID).
		Delete(&model.TestQuestion{}))
}

// Questions 按 question_order 升序返回测试的题目及选项
func (r *TestRepository) Questions(ctx context.Context, testID uint) ([]model.TestQuestion, error) {
	var tqs []model.TestQuestion
	err := r.DB.WithContext(ctx).
		Preload("Question").
		Preload("Question.AnswerOptions", preloadOptions).
		Where("test_id = ?", testID).
		Order("question_order asc, id asc").
		Find(&tqs).Error
	return tqs, translateError(err)
}

func (r *TestRepository) FindTestQuestion(ctx context.Context, testID, questionID uint) (*model.TestQuestion, error) {
	var tq model.TestQuestion
	err := r.DB.WithContext(ctx).
		Where("test_id = ? AND question_id = ?", testID, questionID).
		First(&tq).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &tq, nil
}

func (r *TestRepository) CountQuestions(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.TestQuestion{}).
		Where("test_id = ?", testID).
		Count(&count).Error
	return count, translateError(err)
}

// QuestionCounts 批量统计每个测试的题目数
func (r *TestRepository) QuestionCounts(ctx context.Context, testIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(testIDs))
	if len(testIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TestID uint
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.TestQuestion{}).
		Select("test_id, COUNT(*) AS count").
		Where("test_id IN ?", testIDs).
		Group("test_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		counts[row.TestID] = row.Count
	}
	return counts, nil
}

// Composition 返回测试的题目组成，不加载题目内容
func (r *TestRepository) Composition(ctx context.Context, testID uint) ([]model.TestQuestion, error) {
	var tqs []model.TestQuestion
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("question_order asc, id asc").
		Find(&tqs).Error
	return tqs, translateError(err)
}
