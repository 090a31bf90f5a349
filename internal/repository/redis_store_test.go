package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisPaperCache(t *testing.T) {
	c := NewRedisPaperCache(newRedis(t), time.Hour)
	ctx := context.Background()
	id := uuid.New()

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	paper := &model.ExamPaper{
		Exam:      model.Exam{ID: id, Title: "Physics"},
		Questions: []model.QuestionForStudent{{ID: uuid.New(), QuestionText: "g?", Marks: 2}},
	}
	require.NoError(t, c.Set(ctx, paper))

	got, err = c.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Physics", got.Exam.Title)
	assert.Len(t, got.Questions, 1)

	require.NoError(t, c.Invalidate(ctx, id))
	got, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisAnnouncementStore(t *testing.T) {
	s := NewRedisAnnouncementStore(newRedis(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Add(ctx, model.Announcement{ID: "old", Title: "first", CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Add(ctx, model.Announcement{ID: "new", Title: "second", CreatedAt: now}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	require.NoError(t, s.Delete(ctx, "old"))
	assert.ErrorIs(t, s.Delete(ctx, "old"), ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
