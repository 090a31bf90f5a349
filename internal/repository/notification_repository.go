package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lms-backend/internal/model"
)

// NotificationRepository persists notification inbox rows.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, recipient_role, recipient_id, title, message, type, priority, is_read, created_at`

// InsertBatch stores a batch in one transaction and returns the persisted
// rows. Addressed notifications go in through a single UNNEST insert; role
// broadcasts are expanded into one row per user of that role.
func (r *NotificationRepository) InsertBatch(ctx context.Context, batch []model.Notification) ([]model.Notification, error) {
	var direct []model.Notification
	var broadcast []model.Notification
	for _, n := range batch {
		if n.RecipientID != nil {
			direct = append(direct, n)
		} else {
			broadcast = append(broadcast, n)
		}
	}

	var stored []model.Notification
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		stored = stored[:0]
		if len(direct) > 0 {
			rows, err := insertDirect(ctx, tx, direct)
			if err != nil {
				return err
			}
			stored = append(stored, rows...)
		}
		for _, n := range broadcast {
			rows, err := tx.Query(ctx,
				`INSERT INTO notifications (recipient_role, recipient_id, title, message, type, priority)
				 SELECT $1, u.id, $2, $3, $4, $5 FROM users u WHERE u.role = $1
				 RETURNING `+notificationColumns,
				n.RecipientRole, n.Title, n.Message, n.Type, n.Priority)
			if err != nil {
				return fmt.Errorf("fan out broadcast: %w", err)
			}
			fanned, err := scanNotifications(rows)
			if err != nil {
				return fmt.Errorf("fan out broadcast: %w", err)
			}
			stored = append(stored, fanned...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func insertDirect(ctx context.Context, tx pgx.Tx, batch []model.Notification) ([]model.Notification, error) {
	n := len(batch)
	roles := make([]string, n)
	recipients := make([]int, n)
	titles := make([]string, n)
	messages := make([]string, n)
	types := make([]string, n)
	priorities := make([]string, n)
	for i, item := range batch {
		roles[i] = string(item.RecipientRole)
		recipients[i] = *item.RecipientID
		titles[i] = item.Title
		messages[i] = item.Message
		types[i] = string(item.Type)
		priorities[i] = string(item.Priority)
	}

	rows, err := tx.Query(ctx,
		`INSERT INTO notifications (recipient_role, recipient_id, title, message, type, priority)
		 SELECT * FROM UNNEST($1::text[], $2::int[], $3::text[], $4::text[], $5::text[], $6::text[])
		 RETURNING `+notificationColumns,
		roles, recipients, titles, messages, types, priorities)
	if err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	stored, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	return stored, nil
}

func scanNotifications(rows pgx.Rows) ([]model.Notification, error) {
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientRole, &n.RecipientID, &n.Title, &n.Message,
			&n.Type, &n.Priority, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListForUser returns a user's inbox newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID, limit, offset int) ([]model.Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications WHERE recipient_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, userID int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
