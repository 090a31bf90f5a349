package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
)

const (
	NotifyBatchSize    = 50
	NotifyBatchTimeout = 2 * time.Second
	NotifyPollTimeout  = 1 * time.Second
	// NotifyMaxAttempts is how many failed inserts a notification survives
	// before it is moved to the dead-letter list.
	NotifyMaxAttempts = 5
)

// NotificationWriter persists a batch of notifications atomically and
// returns the stored rows.
type NotificationWriter interface {
	InsertBatch(ctx context.Context, batch []model.Notification) ([]model.Notification, error)
}

// queuedNotification is the queue payload. Attempts counts failed inserts.
type queuedNotification struct {
	model.Notification
	Attempts int `json:"attempts,omitempty"`
}

// NotificationWorker drains the notification queue into Postgres and fans
// each persisted notification out over Redis Pub/Sub.
type NotificationWorker struct {
	store NotificationWriter
	rdb   *redis.Client
	log   zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
}

func NewNotificationWorker(store NotificationWriter, rdb *redis.Client, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		store:        store,
		rdb:          rdb,
		log:          log.With().Str("component", "notification_worker").Logger(),
		batchSize:    NotifyBatchSize,
		batchTimeout: NotifyBatchTimeout,
		pollTimeout:  NotifyPollTimeout,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	batch := make([]queuedNotification, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, w.pollTimeout, config.WorkerKey.PersistNotificationsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var n queuedNotification
			if err := json.Unmarshal([]byte(item[1]), &n); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			if len(batch) == 0 {
				lastFlush = time.Now()
			}
			batch = append(batch, n)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-item fallback
// ----------------------------------------------------------------

func (w *NotificationWorker) flushSafe(ctx context.Context, batch []queuedNotification) {
	if len(batch) == 0 {
		return
	}

	items := make([]model.Notification, len(batch))
	for i := range batch {
		items[i] = batch[i].Notification
	}

	stored, err := w.store.InsertBatch(ctx, items)
	if err == nil {
		w.publish(ctx, stored)
		return
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk notification insert failed, using fallback")

	for _, n := range batch {
		stored, err := w.store.InsertBatch(ctx, []model.Notification{n.Notification})
		if err != nil {
			w.retry(ctx, n, err)
			continue
		}
		w.publish(ctx, stored)
	}
}

// retry puts a failed notification back on the queue, or on the dead-letter
// list once it has failed NotifyMaxAttempts times.
func (w *NotificationWorker) retry(ctx context.Context, n queuedNotification, cause error) {
	n.Attempts++
	key := config.WorkerKey.PersistNotificationsQueue
	if n.Attempts >= NotifyMaxAttempts {
		key = config.WorkerKey.DeadNotificationsQueue
	}

	log := w.log.With().Err(cause).Str("title", n.Title).Int("attempts", n.Attempts).Logger()
	raw, err := json.Marshal(n)
	if err != nil {
		log.Error().AnErr("marshal_error", err).Msg("dropping notification that cannot be encoded")
		return
	}
	if err := w.rdb.RPush(ctx, key, raw).Err(); err != nil {
		log.Error().AnErr("push_error", err).Str("queue", key).Msg("failed to requeue notification, dropped")
		return
	}
	if key == config.WorkerKey.DeadNotificationsQueue {
		log.Error().Msg("single insert failed too often, moved to dead-letter queue")
		return
	}
	log.Warn().Msg("single insert failed, requeueing")
}

// ----------------------------------------------------------------
// Live fan-out over Pub/Sub
// ----------------------------------------------------------------

// publish pushes each persisted row to its recipient's channel. Rows carry
// their inbox ID so clients can mark them read.
func (w *NotificationWorker) publish(ctx context.Context, rows []model.Notification) {
	if len(rows) == 0 {
		return
	}
	pipe := w.rdb.Pipeline()
	for _, n := range rows {
		if n.RecipientID == nil {
			continue
		}
		raw, err := json.Marshal(n)
		if err != nil {
			w.log.Warn().Err(err).Int64("id", n.ID).Msg("skipping unencodable notification")
			continue
		}
		pipe.Publish(ctx, config.CacheKey.UserNotifyChannel(*n.RecipientID), raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("publish notifications failed")
	}
}
