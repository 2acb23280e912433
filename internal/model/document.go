package model

import "time"

type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentProcessing, DocumentCompleted, DocumentFailed:
		return true
	}
	return false
}

// Terminal 处理结束的状态会记录 processed_at
func (s DocumentStatus) Terminal() bool {
	return s == DocumentCompleted || s == DocumentFailed
}

// SourceDocument 上传的源文件元数据，文件内容保存在存储服务中
// swagger:model SourceDocument
type SourceDocument struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename     string         `gorm:"size:255;not null" json:"filename"`
	FilePath     string         `gorm:"size:500" json:"file_path"`
	FileSize     int64          `json:"file_size"`
	MimeType     string         `gorm:"size:100" json:"mime_type"`
	Status       DocumentStatus `gorm:"size:20;not null;index" json:"status"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message"`
	UploaderID   uint           `gorm:"not null;index" json:"uploader_id"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	ProcessedAt  *time.Time     `json:"processed_at"`

	Uploader *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (SourceDocument) TableName() string {
	return "source_documents"
}
