package domain

// OrderStatus represents the shared status of a marketplace order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is in the closed set
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusPaid,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the order is locked against further mutation
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ShippingStatus is the per-item shipping sub-state controlled by the
// item's seller
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
)

// IsValid checks if the shipping status is in the closed set
func (s ShippingStatus) IsValid() bool {
	switch s {
	case ShippingStatusPending, ShippingStatusShipped, ShippingStatusDelivered:
		return true
	default:
		return false
	}
}

// DisputeStatus represents the status of a dispute attached to an order
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusAccepted DisputeStatus = "accepted"
	DisputeStatusRejected DisputeStatus = "rejected"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// IsValid checks if the dispute status is in the closed set
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusAccepted, DisputeStatusRejected, DisputeStatusResolved:
		return true
	default:
		return false
	}
}

// Role is the platform role of a user
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// SellerStatus is the platform approval state of a seller account
type SellerStatus string

const (
	SellerStatusPending  SellerStatus = "pending"
	SellerStatusApproved SellerStatus = "approved"
	SellerStatusRejected SellerStatus = "rejected"
)

// Severity classifies a notification for display
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// IsValid checks if the severity is in the closed set
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityDanger:
		return true
	default:
		return false
	}
}

// MessageSender identifies who authored a dispute or thread message
type MessageSender string

const (
	SenderBuyer  MessageSender = "buyer"
	SenderSeller MessageSender = "seller"
	SenderAdmin  MessageSender = "admin"
)
