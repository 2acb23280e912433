package repository

import (
	"context"
	"testgen_backend/internal/model"

	"gorm.io/gorm"
)

// StatsRepository 每个数字都是独立的 COUNT 查询，彼此之间没有快照保证
type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// Count 统计 m 对应表中满足条件的行数，query 为空时统计全表
func (r *StatsRepository) Count(ctx context.Context, m interface{}, query string, args ...interface{}) (int64, error) {
	var count int64
	db := r.DB.WithContext(ctx).Model(m)
	if query != "" {
		db = db.Where(query, args...)
	}
	err := db.Count(&count).Error
	return count, translateError(err)
}

func (r *StatsRepository) Users(ctx context.Context) (int64, error) {
	return r.Count(ctx, &model.User{}, "")
}

func (r *StatsRepository) Questions(ctx context.Context) (int64, error) {
	return r.Count(ctx, &model.Question{}, "")
}

func (r *StatsRepository) Tests(ctx context.Context) (int64, error) {
	return r.Count(ctx, &model.Test{}, "")
}

// Ping 检查数据库连接
func (r *StatsRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return translateError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return translateError(err)
	}
	return nil
}
