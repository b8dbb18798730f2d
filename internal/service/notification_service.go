package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/cache"
	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/push"
	"github.com/jafarshop/marketapi/internal/repository"
)

// adminIDsKey is the single entry key in the admin-id cache
const adminIDsKey = "admin-ids"

// NotificationPayload is the event content delivered to each recipient
type NotificationPayload struct {
	Type     string
	Title    string
	Body     string
	Link     string
	Icon     string
	Severity domain.Severity
	Meta     map[string]interface{}
}

// NotificationService is the fan-out ledger: one durable notification per
// (event, recipient) pair, plus an optional fire-and-forget live push.
type NotificationService struct {
	repos    *repository.Repositories
	emitter  push.Emitter
	adminIDs *cache.TTL[[]uuid.UUID]
	logger   *zap.Logger
}

// NewNotificationService creates a new notification service. The admin set
// is cached with the given TTL to avoid a user lookup on every event.
func NewNotificationService(repos *repository.Repositories, emitter push.Emitter, adminTTL time.Duration, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repos:    repos,
		emitter:  emitter,
		adminIDs: cache.NewTTL[[]uuid.UUID](adminTTL),
		logger:   logger,
	}
}

// AdminCache exposes the admin-id cache for the scheduled eviction sweep
func (s *NotificationService) AdminCache() *cache.TTL[[]uuid.UUID] {
	return s.adminIDs
}

// NotifyUser records a single notification. A nil recipient is a no-op.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uuid.UUID, p NotificationPayload) (*domain.Notification, error) {
	if userID == uuid.Nil {
		return nil, nil
	}

	n := newNotification(userID, p)
	if err := s.repos.Notification.Insert(ctx, n); err != nil {
		return nil, err
	}

	s.push(userID, n)
	return n, nil
}

// NotifyUsers de-duplicates the recipient set and records one notification
// per distinct recipient. Row failures are tolerated inside the batch.
func (s *NotificationService) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, p NotificationPayload) ([]*domain.Notification, error) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	var ns []*domain.Notification
	for _, id := range userIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ns = append(ns, newNotification(id, p))
	}
	if len(ns) == 0 {
		return nil, nil
	}

	inserted, err := s.repos.Notification.InsertBatch(ctx, ns)
	if err != nil {
		return nil, err
	}
	if inserted < len(ns) {
		s.logger.Warn("Notification batch partially inserted",
			zap.Int("requested", len(ns)),
			zap.Int("inserted", inserted),
		)
	}

	for _, n := range ns {
		s.push(n.RecipientID, n)
	}

	return ns, nil
}

// NotifyAdmins fans out to every admin-role user, resolved through the
// TTL cache
func (s *NotificationService) NotifyAdmins(ctx context.Context, p NotificationPayload) error {
	ids, ok := s.adminIDs.Get(adminIDsKey)
	if !ok {
		fresh, err := s.repos.User.ListAdminIDs(ctx)
		if err != nil {
			return err
		}
		s.adminIDs.Set(adminIDsKey, fresh)
		ids = fresh
	}

	_, err := s.NotifyUsers(ctx, ids, p)
	return err
}

// List returns the recipient's notifications, newest first
func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Notification.ListByRecipient(ctx, recipientID, limit, offset)
}

// UnreadCount returns the recipient's unread notification count
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.repos.Notification.CountUnread(ctx, recipientID)
}

// MarkRead marks one of the recipient's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	return s.repos.Notification.MarkRead(ctx, recipientID, id)
}

// MarkAllRead marks all of the recipient's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repos.Notification.MarkAllRead(ctx, recipientID)
}

// push is fire-and-forget; the durable row already exists
func (s *NotificationService) push(userID uuid.UUID, n *domain.Notification) {
	s.emitter.Emit(userID, "notification", map[string]interface{}{
		"id":       n.ID.String(),
		"type":     n.Type,
		"title":    n.Title,
		"body":     n.Body,
		"link":     n.Link,
		"severity": string(n.Severity),
	})
}

func newNotification(recipientID uuid.UUID, p NotificationPayload) *domain.Notification {
	severity := p.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}
	return &domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        p.Type,
		Title:       p.Title,
		Body:        p.Body,
		Link:        p.Link,
		Icon:        p.Icon,
		Severity:    severity,
		Meta:        p.Meta,
	}
}
