package model

import (
	"time"

	"gorm.io/datatypes"
)

type AuditOperation string

const (
	AuditInsert AuditOperation = "INSERT"
	AuditUpdate AuditOperation = "UPDATE"
	AuditDelete AuditOperation = "DELETE"
)

func (o AuditOperation) Valid() bool {
	return o == AuditInsert || o == AuditUpdate || o == AuditDelete
}

// AuditLog 只追加，不提供更新
// swagger:model AuditLog
type AuditLog struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Table         string         `gorm:"column:table_name;size:64;not null;index:idx_audit_table_record" json:"table_name"`
	OperationType AuditOperation `gorm:"size:10;not null;index:idx_audit_operation_date" json:"operation_type"`
	RecordID      uint           `gorm:"not null;index:idx_audit_table_record" json:"record_id"`
	OldValues     datatypes.JSON `gorm:"type:text" json:"old_values,omitempty" swaggertype:"object"`
	NewValues     datatypes.JSON `gorm:"type:text" json:"new_values,omitempty" swaggertype:"object"`
	UserID        *uint          `gorm:"index" json:"user_id"`
	ChangedAt     time.Time      `gorm:"not null;index:idx_audit_operation_date" json:"changed_at"`

	User *User `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
