package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu        sync.Mutex
	rows      []model.Notification
	failBulk  bool
	failTitle string
	calls     int
}

// InsertBatch assigns IDs and stores broadcasts as rows for user 100.
func (f *fakeWriter) InsertBatch(_ context.Context, batch []model.Notification) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failBulk && len(batch) > 1 {
		return nil, errors.New("bulk failed")
	}
	for _, n := range batch {
		if n.Title == f.failTitle {
			return nil, errors.New("row failed")
		}
	}
	stored := make([]model.Notification, len(batch))
	for i, n := range batch {
		n.ID = int64(len(f.rows) + 1)
		if n.RecipientID == nil {
			broadcastUser := 100
			n.RecipientID = &broadcastUser
		}
		f.rows = append(f.rows, n)
		stored[i] = n
	}
	return stored, nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func newTestWorker(t *testing.T, w NotificationWriter) (*NotificationWorker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	nw := NewNotificationWorker(w, rdb, zerolog.Nop())
	nw.batchTimeout = 50 * time.Millisecond
	nw.pollTimeout = 50 * time.Millisecond
	return nw, rdb
}

func push(t *testing.T, rdb *redis.Client, ns ...model.Notification) {
	t.Helper()
	for _, n := range ns {
		raw, err := json.Marshal(n)
		require.NoError(t, err)
		require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.PersistNotificationsQueue, raw).Err())
	}
}

func TestNotificationWorker_PersistsAndPublishes(t *testing.T) {
	store := &fakeWriter{}
	w, rdb := newTestWorker(t, store)

	id := 3
	sub := rdb.Subscribe(context.Background(), config.CacheKey.UserNotifyChannel(id))
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	push(t, rdb,
		model.Notification{RecipientRole: model.RoleStudent, RecipientID: &id, Title: "graded"},
		model.Notification{RecipientRole: model.RoleStudent, Title: "new exam"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case msg := <-sub.Channel():
		var n model.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
		assert.Equal(t, "graded", n.Title)
		assert.NotZero(t, n.ID, "live events carry the inbox id")
	case <-time.After(3 * time.Second):
		t.Fatal("no notification published")
	}

	cancel()
	<-done
	assert.Equal(t, 2, store.count())
}

func TestNotificationWorker_FallbackRequeuesFailures(t *testing.T) {
	store := &fakeWriter{failBulk: true, failTitle: "poison"}
	w, rdb := newTestWorker(t, store)
	ctx := context.Background()

	w.flushSafe(ctx, []queuedNotification{
		{Notification: model.Notification{RecipientRole: model.RoleStudent, Title: "ok"}},
		{Notification: model.Notification{RecipientRole: model.RoleStudent, Title: "poison"}},
	})

	assert.Equal(t, 1, store.count())
	left, err := rdb.LRange(ctx, config.WorkerKey.PersistNotificationsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, left, 1)

	var requeued queuedNotification
	require.NoError(t, json.Unmarshal([]byte(left[0]), &requeued))
	assert.Equal(t, "poison", requeued.Title)
	assert.Equal(t, 1, requeued.Attempts)
}

func TestNotificationWorker_DeadLettersAfterMaxAttempts(t *testing.T) {
	store := &fakeWriter{failTitle: "poison"}
	w, rdb := newTestWorker(t, store)
	ctx := context.Background()

	poison := queuedNotification{Notification: model.Notification{RecipientRole: model.RoleStudent, Title: "poison"}}
	for i := 0; i < NotifyMaxAttempts; i++ {
		w.flushSafe(ctx, []queuedNotification{poison})
		left, err := rdb.LRange(ctx, config.WorkerKey.PersistNotificationsQueue, 0, -1).Result()
		require.NoError(t, err)
		if len(left) == 0 {
			break
		}
		require.Len(t, left, 1)
		require.NoError(t, rdb.Del(ctx, config.WorkerKey.PersistNotificationsQueue).Err())
		require.NoError(t, json.Unmarshal([]byte(left[0]), &poison))
	}

	queued, err := rdb.LLen(ctx, config.WorkerKey.PersistNotificationsQueue).Result()
	require.NoError(t, err)
	assert.Zero(t, queued)

	dead, err := rdb.LRange(ctx, config.WorkerKey.DeadNotificationsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	var item queuedNotification
	require.NoError(t, json.Unmarshal([]byte(dead[0]), &item))
	assert.Equal(t, NotifyMaxAttempts, item.Attempts)
	assert.Equal(t, 0, store.count())
}

func TestNotificationWorker_PublishesBroadcastRowsPerUser(t *testing.T) {
	store := &fakeWriter{}
	w, rdb := newTestWorker(t, store)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, config.CacheKey.UserNotifyChannel(100))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	w.flushSafe(ctx, []queuedNotification{
		{Notification: model.Notification{RecipientRole: model.RoleStudent, Title: "new exam"}},
	})

	select {
	case msg := <-sub.Channel():
		var n model.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
		assert.Equal(t, "new exam", n.Title)
		assert.Equal(t, int64(1), n.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast row not published")
	}
}

func TestNotificationWorker_FlushesOnShutdown(t *testing.T) {
	store := &fakeWriter{}
	w, rdb := newTestWorker(t, store)
	w.batchTimeout = time.Hour

	push(t, rdb, model.Notification{RecipientRole: model.RoleAdmin, Title: "late"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, _ := rdb.LLen(context.Background(), config.WorkerKey.PersistNotificationsQueue).Result()
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 1, store.count())
}
