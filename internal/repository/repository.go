package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/marketapi/internal/domain"
)

// UserRepository manages platform accounts
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByExternalUID(ctx context.Context, externalUID string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ProductRepository manages catalog entries
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	// DecrementStock atomically reduces stock if enough is available.
	// Returns false when stock is insufficient.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// RestoreStock returns previously reserved stock to the catalog.
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) error
}

// OrderRepository manages orders and their line items
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
}

// DisputeRepository manages disputes. Create enforces the one-dispute-per-order
// uniqueness invariant and returns *errors.ErrConflict on violation.
type DisputeRepository interface {
	Create(ctx context.Context, dispute *domain.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Dispute, error)
	Update(ctx context.Context, dispute *domain.Dispute) error
	ListByStatus(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error)
}

// NotificationRepository is the durable fan-out ledger
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	// InsertBatch inserts each row independently; failed rows are skipped and
	// the number of rows actually inserted is returned.
	InsertBatch(ctx context.Context, ns []*domain.Notification) (int, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}

// OrderEventRepository appends audit events for order mutations
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
}

// Repositories bundles all repository implementations
type Repositories struct {
	User         UserRepository
	Product      ProductRepository
	Order        OrderRepository
	Dispute      DisputeRepository
	Notification NotificationRepository
	OrderEvent   OrderEventRepository
}
