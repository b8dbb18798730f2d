package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/pkg/errors"
)

type notificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *notificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *notificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.insert(ctx, n)
}

// InsertBatch inserts one row per notification. A failed row is logged and
// skipped; the ledger is best-effort, not a transactional outbox.
func (r *notificationRepository) InsertBatch(ctx context.Context, ns []*domain.Notification) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	inserted := 0
	for _, n := range ns {
		if err := r.insert(ctx, n); err != nil {
			r.logger.Warn("Skipping failed notification insert",
				zap.String("recipient", n.RecipientID.String()),
				zap.Error(err),
			)
			continue
		}
		inserted++
	}

	return inserted, nil
}

func (r *notificationRepository) insert(ctx context.Context, n *domain.Notification) error {
	metaJSON, err := json.Marshal(n.Meta)
	if err != nil {
		return &errors.ErrDependency{Op: "encode notification meta", Err: err}
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Severity == "" {
		n.Severity = domain.SeverityInfo
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, body, link, icon,
			severity, meta, read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Body,
		n.Link,
		n.Icon,
		n.Severity,
		metaJSON,
		n.Read,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert notification", zap.Error(err))
		return err
	}

	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipient_id, type, title, body, link, icon, severity, meta, read, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var metaJSON []byte
		var readAt sql.NullTime

		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.Link,
			&n.Icon,
			&n.Severity,
			&metaJSON,
			&n.Read,
			&readAt,
			&n.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan notification", zap.Error(err))
			return nil, err
		}

		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &n.Meta); err != nil {
				return nil, err
			}
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = false
	`, recipientID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Error(err))
		return 0, err
	}

	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = true, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_id = $2
	`, id, recipientID, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "notification", ID: id.String()}
	}

	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = true, read_at = $2
		WHERE recipient_id = $1 AND read = false
	`, recipientID, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark notifications read", zap.Error(err))
		return err
	}

	return nil
}
