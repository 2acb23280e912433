package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

// AuditRepository 审计日志只允许追加和查询
type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

type AuditFilter struct {
	Table     string
	RecordID  *uint
	Operation model.AuditOperation
	UserID    *uint
}

func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	return translateError(r.DB.WithContext(ctx).Create(entry).Error)
}

func (r *AuditRepository) FindByID(ctx context.Context, id uint) (*model.AuditLog, error) {
	var entry model.AuditLog
	if err := r.DB.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (r *AuditRepository) List(ctx context.Context, f AuditFilter, limit, offset int) ([]model.AuditLog, int64, error) {
	var entries []model.AuditLog
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.AuditLog{})
	if f.Table != "" {
		query = query.Where("table_name = ?", f.Table)
	}
	if f.RecordID != nil {
		query = query.Where("record_id = ?", *f.RecordID)
	}
	if f.Operation != "" {
		query = query.Where("operation_type = ?", f.Operation)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("changed_at desc, id desc").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, translateError(err)
}
