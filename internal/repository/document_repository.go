package repository

import (
	"context"
	"testgen_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.SourceDocument) error {
	return translateError(r.DB.WithContext(ctx).Create(doc).Error)
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uint) (*model.SourceDocument, error) {
	var doc model.SourceDocument
	if err := r.DB.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &doc, nil
}

// List 按上传时间倒序，status 为空时返回全部
func (r *DocumentRepository) List(ctx context.Context, status model.DocumentStatus, limit, offset int) ([]model.SourceDocument, int64, error) {
	var docs []model.SourceDocument
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.SourceDocument{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	err := query.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, total, translateError(err)
}

// UpdateStatus 只修改处理状态相关字段
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uint, status model.DocumentStatus, errMsg *string, processedAt *time.Time) error {
	return mustAffect(r.DB.WithContext(ctx).Model(&model.SourceDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errMsg,
			"processed_at":  processedAt,
		}))
}

// Delete 关联题目的 source_document_id 被置空
func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	return mustAffect(r.DB.WithContext(ctx).Delete(&model.SourceDocument{}, id))
}

// QuestionCounts 统计每个文档生成的题目数
func (r *DocumentRepository) QuestionCounts(ctx context.Context, docIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(docIDs))
	if len(docIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		SourceDocumentID uint
		Count            int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("source_document_id, COUNT(*) AS count").
		Where("source_document_id IN ?", docIDs).
		Group("source_document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		counts[row.SourceDocumentID] = row.Count
	}
	return counts, nil
}
