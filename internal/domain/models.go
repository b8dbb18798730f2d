package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a platform account. It is keyed locally but identified by
// the external uid supplied by the identity provider.
type User struct {
	ID           uuid.UUID
	ExternalUID  string
	Email        string
	DisplayName  string
	Role         Role
	SellerStatus SellerStatus
	APIKeyHash   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product represents a catalog entry owned by a seller
type Product struct {
	ID             uuid.UUID
	SellerID       *uuid.UUID
	Name           string
	Price          decimal.Decimal
	Stock          int
	CommissionRate decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentVerification holds the admin- and seller-side payment confirmation
// flags for an order. VerifiedAt is stamped once and never overwritten.
type PaymentVerification struct {
	VerifiedByAdmin  bool
	VerifiedBySeller bool
	VerifiedAt       *time.Time
	SellerVerifiedAt *time.Time
}

// OrderItem is a line item snapshot within an order. SellerID is a
// non-owning reference used for partitioning and authorization only.
type OrderItem struct {
	ProductID        uuid.UUID
	Name             string
	UnitPrice        decimal.Decimal
	Quantity         int
	SellerID         *uuid.UUID
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerEarnings   decimal.Decimal
	ShippingStatus   ShippingStatus
	ShippedAt        *time.Time
}

// Order is a buyer's purchase spanning possibly many sellers' items, with one
// shared status and one payment verification state.
type Order struct {
	ID              uuid.UUID
	BuyerID         uuid.UUID
	Items           []OrderItem
	ShippingAddress map[string]interface{} // JSONB
	PaymentMethod   string
	Payment         PaymentVerification
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemsForSeller returns the order's line items owned by the given seller
func (o *Order) ItemsForSeller(sellerID uuid.UUID) []OrderItem {
	var out []OrderItem
	for _, it := range o.Items {
		if it.SellerID != nil && *it.SellerID == sellerID {
			out = append(out, it)
		}
	}
	return out
}

// Attachment is an uploaded file reference on a dispute or message
type Attachment struct {
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message is an append-only entry in a dispute thread
type Message struct {
	Sender      MessageSender `json:"sender"`
	Body        string        `json:"body"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Dispute is attached 1:1 to an order and carries its own status lifecycle
// plus a threaded message log.
type Dispute struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	BuyerID     uuid.UUID
	SellerID    *uuid.UUID // set only when all implicated items share one seller
	Reason      string
	Details     string
	Status      DisputeStatus
	Resolution  string
	AdminNotes  string
	Attachments []Attachment
	Messages    []Message
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Notification is one durable ledger row per (event, recipient) pair.
// Only Read/ReadAt may change after insertion, and only by the recipient.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Type        string
	Title       string
	Body        string
	Link        string
	Icon        string
	Severity    Severity
	Meta        map[string]interface{} // JSONB
	Read        bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// OrderEvent is an audit row appended after each order mutation
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}
