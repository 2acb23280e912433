package service

import (
	"context"
	"encoding/json"
	"testgen_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// GenerationTask 交给题目生成 worker 的任务，worker 从列表头部 BLPOP
type GenerationTask struct {
	DocumentID uint   `json:"document_id"`
	FilePath   string `json:"file_path"`
	MimeType   string `json:"mime_type"`
}

type GenerationQueue interface {
	Enqueue(ctx context.Context, task GenerationTask) error
}

// RedisGenerationQueue 把任务 RPUSH 到 Redis 列表
type RedisGenerationQueue struct {
	Client *redis.Client
	Key    string
}

func NewRedisGenerationQueue(client *redis.Client, key string) *RedisGenerationQueue {
	return &RedisGenerationQueue{Client: client, Key: key}
}

func (q *RedisGenerationQueue) Enqueue(ctx context.Context, task GenerationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.Client.RPush(ctx, q.Key, payload).Err()
}

// NoopGenerationQueue 未启用 Redis 时使用，文档保持 pending 状态
type NoopGenerationQueue struct{}

func (NoopGenerationQueue) Enqueue(ctx context.Context, task GenerationTask) error {
	logger.Log.Info("Generation queue disabled, task not enqueued",
		zap.Uint("document_id", task.DocumentID))
	return nil
}
