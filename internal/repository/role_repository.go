package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{DB: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	return translateError(r.DB.WithContext(ctx).Create(role).Error)
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.DB.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.WithContext(ctx).Order("id asc").Find(&roles).Error
	return roles, translateError(err)
}

func (r *RoleRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.Role{}, id))
}

// Assign 为用户添加角色，重复添加返回 ErrConflict
func (r *RoleRepository) Assign(ctx context.Context, userID, roleID uint) (*model.UserRole, error) {
	ur := &model.UserRole{UserID: userID, RoleID: roleID}
	if err := r.DB.WithContext(ctx).Create(ur).Error; err != nil {
		return nil, translateError(err)
	}
	return ur, nil
}

// Revoke 删除用户的角色并返回被删除的关联
func (r *RoleRepository) Revoke(ctx context.Context, userID, roleID uint) (*model.UserRole, error) {
	var ur model.UserRole
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND role_id = ?", userID, roleID).First(&ur).Error; err != nil {
			return translateError(err)
		}
		return mustAffect(tx.Delete(&model.UserRole{}, ur.ID))
	})
	if err != nil {
		return nil, err
	}
	return &ur, nil
}

func (r *RoleRepository) RolesOfUser(ctx context.Context, userID uint) ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id asc").
		Find(&roles).Error
	return roles, translateError(err)
}

// UsersWithRole 角色的反向查询
func (r *RoleRepository) UsersWithRole(ctx context.Context, roleID uint, limit, offset int) ([]model.User, int64, error) {
	var users []model.User
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", roleID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("users.id asc").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, translateError(err)
}
