package model

import (
	"time"
)

// 内置角色名称
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// swagger:model User
type User struct {
	BaseModel
	FullName     string `gorm:"size:255;not null" json:"full_name"`
	Email        string `gorm:"size:255;uniqueIndex:idx_users_email;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	IsActive     bool   `gorm:"not null;index" json:"is_active"`
}

func (User) TableName() string {
	return "users"
}

// swagger:model Role
type Role struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex:idx_roles_name;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole 用户与角色的关联，(user_id, role_id) 唯一
type UserRole struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:unique_user_role" json:"user_id"`
	RoleID     uint      `gorm:"not null;index;uniqueIndex:unique_user_role" json:"role_id"`
	AssignedAt time.Time `gorm:"not null;autoCreateTime" json:"assigned_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role *Role `gorm:"constraint:OnDelete:CASCADE" json:"role,omitempty"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
