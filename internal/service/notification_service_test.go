package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueNotifier_PushesJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	n := NewQueueNotifier(rdb)
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx))
	id := 5
	require.NoError(t, n.Notify(ctx,
		model.Notification{RecipientRole: model.RoleStudent, RecipientID: &id, Title: "one"},
		model.Notification{RecipientRole: model.RoleTeacher, Title: "two"},
	))

	items, err := rdb.LRange(ctx, config.WorkerKey.PersistNotificationsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 2)

	var first model.Notification
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	assert.Equal(t, "one", first.Title)
	require.NotNil(t, first.RecipientID)
	assert.Equal(t, 5, *first.RecipientID)
}

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	db := inmem.NewDB()
	ctx := context.Background()
	u := &model.User{Name: "S", Email: "s@school.test", Role: model.RoleStudent}
	require.NoError(t, db.Users().Create(ctx, u))
	_, err := db.Notifications().InsertBatch(ctx, []model.Notification{
		{RecipientRole: model.RoleStudent, Title: "broadcast"},
		{RecipientRole: model.RoleStudent, RecipientID: &u.ID, Title: "direct"},
	})
	require.NoError(t, err)

	svc := NewNotificationService(db.Notifications())
	items, p, err := svc.List(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "direct", items[0].Title)
	assert.Equal(t, 2, p.TotalItems)

	require.NoError(t, svc.MarkRead(ctx, items[0].ID, u.ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, items[0].ID, u.ID+1), ErrNotificationNotFound)

	items, _, err = svc.List(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	assert.True(t, items[0].IsRead)
	assert.False(t, items[1].IsRead)
}

func TestAnnouncementService(t *testing.T) {
	store := inmem.NewAnnouncementStore()
	notifier := &recordingNotifier{}
	svc := NewAnnouncementService(store, notifier, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreateAnnouncementRequest{Title: " ", Body: "x"}, Actor{ID: 1, Role: model.RoleAdmin})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	a, err := svc.Create(ctx, &model.CreateAnnouncementRequest{Title: "Holiday", Body: "School closed Friday"}, Actor{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Len(t, notifier.ofType(model.NotificationAnnouncement), 3)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrAnnouncementNotFound)

	// Broadcast failures do not fail the post.
	notifier.err = errors.New("redis down")
	_, err = svc.Create(ctx, &model.CreateAnnouncementRequest{Title: "Again", Body: "body"}, Actor{ID: 1, Role: model.RoleAdmin})
	assert.NoError(t, err)
}
