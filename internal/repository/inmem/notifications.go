package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
)

// NotificationStore is the in-memory notification inbox.
type NotificationStore struct {
	db *DB
}

// InsertBatch expands role broadcasts into one row per user of the role and
// returns the stored rows.
func (s *NotificationStore) InsertBatch(_ context.Context, batch []model.Notification) ([]model.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	var stored []model.Notification
	add := func(n model.Notification, recipient int) {
		s.db.nextNotificationID++
		n.ID = s.db.nextNotificationID
		n.RecipientID = &recipient
		n.CreatedAt = now
		s.db.inbox = append(s.db.inbox, n)
		stored = append(stored, n)
	}

	for _, n := range batch {
		if n.RecipientID != nil {
			add(n, *n.RecipientID)
			continue
		}
		ids := make([]int, 0)
		for id, u := range s.db.users {
			if u.Role == n.RecipientRole {
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		for _, id := range ids {
			add(n, id)
		}
	}
	return stored, nil
}

func (s *NotificationStore) ListForUser(_ context.Context, userID, limit, offset int) ([]model.Notification, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []model.Notification
	for i := len(s.db.inbox) - 1; i >= 0; i-- {
		n := s.db.inbox[i]
		if *n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return page(out, limit, offset), len(out), nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id int64, userID int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i := range s.db.inbox {
		n := &s.db.inbox[i]
		if n.ID == id && *n.RecipientID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// All returns every stored row in insertion order.
func (s *NotificationStore) All() []model.Notification {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]model.Notification(nil), s.db.inbox...)
}
