package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"
	"testgen_backend/pkg/monitoring"
	"testgen_backend/pkg/tracing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// swagger:model DocumentView
type DocumentView struct {
	model.SourceDocument
	QuestionsCount int64  `json:"questions_count"`
	URL            string `json:"url"`
}

type UploadInput struct {
	Filename   string
	Size       int64
	MimeType   string
	Body       io.Reader
	UploaderID uint
}

type DocumentStatusRequest struct {
	Status       string  `json:"status" binding:"required"`
	ErrorMessage *string `json:"error_message"`
}

type DocumentService struct {
	DocumentRepo   *repository.DocumentRepository
	Storage        *StorageService
	Queue          GenerationQueue
	Audit          *AuditService
	MaxUploadBytes int64
}

func NewDocumentService(docs *repository.DocumentRepository, storage *StorageService, queue GenerationQueue, audit *AuditService, maxUploadMB int64) *DocumentService {
	return &DocumentService{
		DocumentRepo:   docs,
		Storage:        storage,
		Queue:          queue,
		Audit:          audit,
		MaxUploadBytes: maxUploadMB << 20,
	}
}

func (s *DocumentService) view(doc *model.SourceDocument, count int64) DocumentView {
	return DocumentView{SourceDocument: *doc, QuestionsCount: count, URL: s.Storage.GetURL(doc.FilePath)}
}

// Upload 保存文件、登记 pending 记录并投递生成任务。
// 投递失败时文档被标记为 failed，上传本身仍然成功
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (_ *DocumentView, err error) {
	ctx, span := tracing.StartSpan(ctx, "DocumentService.Upload", attribute.String("filename", in.Filename))
	defer func() { tracing.EndSpan(span, err) }()

	if !util.HasAllowedExt(in.Filename, util.AllowedDocumentExts) {
		return nil, fmt.Errorf("%w: unsupported file type %q", util.ErrValidation, filepath.Ext(in.Filename))
	}
	if s.MaxUploadBytes > 0 && in.Size > s.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", util.ErrValidation, s.MaxUploadBytes)
	}

	key := "documents/" + uuid.NewString() + strings.ToLower(filepath.Ext(in.Filename))
	if err := s.Storage.Upload(ctx, key, in.Body, in.Size, in.MimeType); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.SourceDocument{
		Filename:   filepath.Base(in.Filename),
		FilePath:   key,
		FileSize:   in.Size,
		MimeType:   in.MimeType,
		Status:     model.DocumentPending,
		UploaderID: in.UploaderID,
	}
	if err := s.DocumentRepo.Create(ctx, doc); err != nil {
		if derr := s.Storage.Delete(ctx, key); derr != nil {
			logger.Log.Warn("Failed to remove orphan upload", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}
	s.Audit.Record(ctx, doc.TableName(), model.AuditInsert, doc.ID, nil, doc)

	task := GenerationTask{DocumentID: doc.ID, FilePath: doc.FilePath, MimeType: doc.MimeType}
	if qerr := s.Queue.Enqueue(ctx, task); qerr != nil {
		monitoring.DocumentsEnqueued.WithLabelValues("failed").Inc()
		logger.Log.Error("Failed to enqueue generation task", zap.Uint("document_id", doc.ID), zap.Error(qerr))

		before := *doc
		msg := "enqueue generation task: " + qerr.Error()
		now := time.Now()
		if err := s.DocumentRepo.UpdateStatus(ctx, doc.ID, model.DocumentFailed, &msg, &now); err != nil {
			return nil, err
		}
		doc.Status, doc.ErrorMessage, doc.ProcessedAt = model.DocumentFailed, &msg, &now
		s.Audit.Record(ctx, doc.TableName(), model.AuditUpdate, doc.ID, &before, doc)
	} else {
		monitoring.DocumentsEnqueued.WithLabelValues("ok").Inc()
	}

	view := s.view(doc, 0)
	return &view, nil
}

func (s *DocumentService) Get(ctx context.Context, id uint) (*DocumentView, error) {
	doc, err := s.DocumentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", id, err)
	}
	counts, err := s.DocumentRepo.QuestionCounts(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	view := s.view(doc, counts[id])
	return &view, nil
}

func (s *DocumentService) List(ctx context.Context, status string, limit, offset int) ([]DocumentView, int64, error) {
	st := model.DocumentStatus(status)
	if st != "" && !st.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", util.ErrValidation, status)
	}
	docs, total, err := s.DocumentRepo.List(ctx, st, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	counts, err := s.DocumentRepo.QuestionCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	views := make([]DocumentView, len(docs))
	for i := range docs {
		views[i] = s.view(&docs[i], counts[docs[i].ID])
	}
	return views, total, nil
}

// UpdateStatus 由生成 worker 回报处理进度，completed/failed 会记录 processed_at
func (s *DocumentService) UpdateStatus(ctx context.Context, id uint, req *DocumentStatusRequest) (*DocumentView, error) {
	status := model.DocumentStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", util.ErrValidation, req.Status)
	}
	before, err := s.DocumentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", id, err)
	}

	var processedAt *time.Time
	if status.Terminal() {
		now := time.Now()
		processedAt = &now
	}
	if err := s.DocumentRepo.UpdateStatus(ctx, id, status, req.ErrorMessage, processedAt); err != nil {
		return nil, err
	}

	after := *before
	after.Status, after.ErrorMessage, after.ProcessedAt = status, req.ErrorMessage, processedAt
	s.Audit.Record(ctx, before.TableName(), model.AuditUpdate, id, before, &after)
	return s.Get(ctx, id)
}

// Delete 删除记录和存储中的文件，由该文档生成的题目保留
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.DocumentRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("document %d: %w", id, err)
	}
	if err := s.DocumentRepo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := s.Storage.Delete(ctx, doc.FilePath); err != nil {
			logger.Log.Warn("Failed to delete stored document", zap.Uint("document_id", id), zap.Error(err))
		}
	}
	s.Audit.Record(ctx, doc.TableName(), model.AuditDelete, id, doc, nil)
	return nil
}
