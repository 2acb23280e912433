package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateWithRoles 用户和角色关联在同一事务中写入，任一失败则全部回滚
func (r *UserRepository) CreateWithRoles(ctx context.Context, user *model.User, roleIDs []uint) error {
	return translateError(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if err := tx.Create(&model.UserRole{UserID: user.ID, RoleID: roleID}).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// List 按 id 升序分页，active 为 nil 时不过滤
func (r *UserRepository) List(ctx context.Context, active *bool, limit, offset int) ([]model.User, int64, error) {
	var users []model.User
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.User{})
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("id asc").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, translateError(err)
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return mustAffect(r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active))
}

// Delete 依赖外键完成级联：角色和分组关系、创建的测试等随之删除，
// 审批人、指派人等引用被置空
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.User{}, id))
}

// RoleNames 返回用户的角色名称
func (r *UserRepository) RoleNames(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).Model(&model.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id asc").
		Pluck("roles.name", &names).Error
	return names, translateError(err)
}

// RoleNamesByUsers 批量查询多个用户的角色，避免逐个查询
func (r *UserRepository) RoleNamesByUsers(ctx context.Context, userIDs []uint) (map[uint][]string, error) {
	result := make(map[uint][]string, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		UserID uint
		Name   string
	}
	err := r.DB.WithContext(ctx).Table("user_roles").
		Select("user_roles.user_id, roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id IN ?", userIDs).
		Order("roles.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], row.Name)
	}
	return result, nil
}
