package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{DB: db}
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	return translateError(r.DB.WithContext(ctx).Create(group).Error)
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.DB.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &group, nil
}

// FindByName 组名不唯一，取最早创建的一个
func (r *GroupRepository) FindByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := r.DB.WithContext(ctx).Where("name = ?", name).Order("id asc").First(&group).Error; err != nil {
		return nil, translateError(err)
	}
	return &group, nil
}

func (r *GroupRepository) List(ctx context.Context, limit, offset int) ([]model.Group, int64, error) {
	var groups []model.Group
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Group{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("name asc, id asc").Offset(offset).Limit(limit).Find(&groups).Error
	return groups, total, translateError(err)
}

func (r *GroupRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.Group{}, id))
}

// AddMember 重复加入返回 ErrConflict
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID uint) (*model.UserGroup, error) {
	ug := &model.UserGroup{UserID: userID, GroupID: groupID}
	if err := r.DB.WithContext(ctx).Create(ug).Error; err != nil {
		return nil, translateError(err)
	}
	return ug, nil
}

// RemoveMember 删除成员关系并返回被删除的记录
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) (*model.UserGroup, error) {
	var ug model.UserGroup
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&ug).Error; err != nil {
			return translateError(err)
		}
		return mustAffect(tx.Delete(&model.UserGroup{}, ug.ID))
	})
	if err != nil {
		return nil, err
	}
	return &ug, nil
}

func (r *GroupRepository) Members(ctx context.Context, groupID uint, limit, offset int) ([]model.User, int64, error) {
	var users []model.User
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Where("user_groups.group_id = ?", groupID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("users.id asc").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, translateError(err)
}

func (r *GroupRepository) GroupsOfUser(ctx context.Context, userID uint) ([]model.Group, error) {
	var groups []model.Group
	err := r.DB.WithContext(ctx).
		Joins("JOIN user_groups ON user_groups.group_id = `groups`.id").
		Where("user_groups.user_id = ?", userID).
		Order("`groups`.id asc").
		Find(&groups).Error
	return groups, translateError(err)
}

func (r *GroupRepository) GroupIDsOfUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.UserGroup{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, translateError(err)
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserGroup{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, translateError(err)
}
