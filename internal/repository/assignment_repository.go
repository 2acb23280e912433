package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *model.TestAssignment) error {
	return translateError(r.DB.WithContext(ctx).Omit("Test").Create(a).Error)
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id uint) (*model.TestAssignment, error) {
	var a model.TestAssignment
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *AssignmentRepository) ListByTest(ctx context.Context, testID uint, limit, offset int) ([]model.TestAssignment, int64, error) {
	var as []model.TestAssignment
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.TestAssignment{}).Where("test_id = ?", testID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("assigned_at desc, id desc").Offset(offset).Limit(limit).Find(&as).Error
	return as, total, translateError(err)
}

// ListForUser 直接指派给用户的以及通过所在分组指派的
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID uint, groupIDs []uint, limit, offset int) ([]model.TestAssignment, int64, error) {
	var as []model.TestAssignment
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.TestAssignment{})
	if len(groupIDs) > 0 {
		query = query.Where("user_id = ? OR group_id IN ?", userID, groupIDs)
	} else {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Preload("Test").
		Order("assigned_at desc, id desc").
		Offset(offset).Limit(limit).
		Find(&as).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	if err := r.markGroupCompletion(ctx, userID, as); err != nil {
		return nil, 0, err
	}
	return as, total, nil
}

// markGroupCompletion 分组指派的完成状态按成员各自的已完成答题计算
func (r *AssignmentRepository) markGroupCompletion(ctx context.Context, userID uint, as []model.TestAssignment) error {
	var ids []uint
	for _, a := range as {
		if a.UserID == nil && !a.IsCompleted {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var done []uint
	err := r.DB.WithContext(ctx).Model(&model.TestSession{}).
		Where("user_id = ? AND status = ? AND assignment_id IN ?", userID, model.SessionCompleted, ids).
		Distinct().
		Pluck("assignment_id", &done).Error
	if err != nil {
		return translateError(err)
	}
	finished := make(map[uint]bool, len(done))
	for _, id := range done {
		finished[id] = true
	}
	for i := range as {
		if finished[as[i].ID] {
			as[i].IsCompleted = true
		}
	}
	return nil
}

func (r *AssignmentRepository) MarkCompleted(ctx context.Context, id uint) error {
	// 已完成时 RowsAffected 仍可能为 0，这里不当作不存在处理
	return translateError(r.DB.WithContext(ctx).Model(&model.TestAssignment{}).
		Where("id = ?", id).
		Update("is_completed", true).Error)
}

// Delete 关联答题记录的 assignment_id 被置空
func (r *AssignmentRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.TestAssignment{}, id))
}
