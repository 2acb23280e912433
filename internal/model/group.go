package model

import "time"

// swagger:model Group
type Group struct {
	BaseModel
	Name        string `gorm:"size:255;not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatedBy   *uint  `gorm:"index" json:"created_by"`

	// 创建者被删除时置空，保留分组
	Creator *User `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// UserGroup 用户与分组的关联，(user_id, group_id) 唯一
type UserGroup struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint      `gorm:"not null;index;uniqueIndex:unique_user_group" json:"user_id"`
	GroupID  uint      `gorm:"not null;index;uniqueIndex:unique_user_group" json:"group_id"`
	JoinedAt time.Time `gorm:"not null;autoCreateTime" json:"joined_at"`

	User  *User  `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Group *Group `gorm:"constraint:OnDelete:CASCADE" json:"group,omitempty"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}
