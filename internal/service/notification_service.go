package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
	"github.com/stemsi/lms-backend/internal/response"
)

// QueueNotifier pushes notifications onto the Redis list drained by the
// notification worker.
type QueueNotifier struct {
	rdb *redis.Client
}

// NewQueueNotifier creates a new QueueNotifier.
func NewQueueNotifier(rdb *redis.Client) *QueueNotifier {
	return &QueueNotifier{rdb: rdb}
}

// Notify enqueues all notifications in one round trip.
func (n *QueueNotifier) Notify(ctx context.Context, notifications ...model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	values := make([]interface{}, len(notifications))
	for i, item := range notifications {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		values[i] = raw
	}
	return n.rdb.RPush(ctx, config.WorkerKey.PersistNotificationsQueue, values...).Err()
}

// NotificationService serves the persisted inbox.
type NotificationService struct {
	store NotificationStore
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID, page, perPage int) ([]model.Notification, *response.Pagination, error) {
	limit, offset, page, perPage := pageBounds(page, perPage)
	items, total, err := s.store.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, response.NewPagination(page, perPage, total), nil
}

// MarkRead flags a notification of the user as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, userID int) error {
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
