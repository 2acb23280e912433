package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testgen_backend/internal/model"
	"testgen_backend/internal/repository"
	"testgen_backend/internal/util"
	"testgen_backend/pkg/logger"
	"testgen_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type AuditService struct {
	Repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{Repo: repo}
}

// Record 追加一条审计记录。写入失败只记日志，不影响已经完成的业务操作
func (s *AuditService) Record(ctx context.Context, table string, op model.AuditOperation, recordID uint, oldValues, newValues interface{}) {
	entry := &model.AuditLog{
		Table:         table,
		OperationType: op,
		RecordID:      recordID,
		OldValues:     snapshot(oldValues),
		NewValues:     snapshot(newValues),
		UserID:        util.ActorFrom(ctx),
		ChangedAt:     time.Now(),
	}
	if err := s.Repo.Create(ctx, entry); err != nil {
		logger.Log.Warn("Failed to write audit log",
			zap.String("table", table),
			zap.String("operation", string(op)),
			zap.Uint("record_id", recordID),
			zap.Error(err))
		return
	}
	monitoring.AuditWrites.WithLabelValues(table, string(op)).Inc()
}

func snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.Log.Warn("Failed to encode audit snapshot", zap.Error(err))
		return nil
	}
	return datatypes.JSON(b)
}

type AuditQuery struct {
	Table     string
	RecordID  *uint
	Operation string
	UserID    *uint
}

func (s *AuditService) List(ctx context.Context, q AuditQuery, limit, offset int) ([]model.AuditLog, int64, error) {
	op := model.AuditOperation(q.Operation)
	if op != "" && !op.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown operation %q", util.ErrValidation, q.Operation)
	}
	return s.Repo.List(ctx, repository.AuditFilter{
		Table:     q.Table,
		RecordID:  q.RecordID,
		Operation: op,
		UserID:    q.UserID,
	}, limit, offset)
}

func (s *AuditService) Get(ctx context.Context, id uint) (*model.AuditLog, error) {
	entry, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("audit entry %d: %w", id, err)
	}
	return entry, nil
}
