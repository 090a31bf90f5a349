package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
)

// RedisPaperCache keeps student-facing exam papers in Redis.
type RedisPaperCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPaperCache creates a paper cache. ttl == 0 keeps entries until invalidated.
func NewRedisPaperCache(rdb *redis.Client, ttl time.Duration) *RedisPaperCache {
	return &RedisPaperCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached paper, or nil without error on a miss.
func (c *RedisPaperCache) Get(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// Set stores a paper.
func (c *RedisPaperCache) Set(ctx context.Context, paper *model.ExamPaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamPaperKey(paper.Exam.ID.String()), data, c.ttl).Err()
}

// Invalidate drops a cached paper.
func (c *RedisPaperCache) Invalidate(ctx context.Context, examID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err()
}
