package service

// CreateOrderRequest is the buyer checkout payload
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1"`
	ShippingAddress map[string]interface{} `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// AdminSetStatusRequest is the admin status mutation payload
type AdminSetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SellerUpdateOrderRequest carries a seller's optional shared-status change
// and/or payment confirmation flag
type SellerUpdateOrderRequest struct {
	Status          *string `json:"status,omitempty"`
	PaymentVerified *bool   `json:"payment_verified,omitempty"`
}

// ItemShippingRequest updates one line item's shipping sub-status
type ItemShippingRequest struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	ShippingStatus string `json:"shipping_status" binding:"required"`
}

// CreateDisputeRequest opens a dispute on an order
type CreateDisputeRequest struct {
	OrderID     string              `json:"order_id" binding:"required,uuid"`
	Reason      string              `json:"reason" binding:"required"`
	Details     string              `json:"details,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

type AttachmentRequest struct {
	URL string `json:"url" binding:"required"`
}

// DisputeMessageRequest appends a buyer message to an existing dispute
type DisputeMessageRequest struct {
	Body        string              `json:"body,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// AdminDisputeUpdateRequest is the admin-side dispute mutation payload.
// All fields are optional; a message-only update is valid.
type AdminDisputeUpdateRequest struct {
	Status      *string             `json:"status,omitempty"`
	Resolution  *string             `json:"resolution,omitempty"`
	AdminNotes  *string             `json:"admin_notes,omitempty"`
	Message     string              `json:"message,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}
