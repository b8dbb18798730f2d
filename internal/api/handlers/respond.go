package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/pkg/errors"
)

// respondError maps service-layer errors to HTTP responses. Unrecognized
// errors are logged and reported as a generic 500 so internals never leak.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
	case *errors.ErrInvalidTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Reason})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Message})
	case *errors.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Message})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Resource + " not found"})
	case *errors.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	default:
		logger.Error("Unhandled service error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// OrderResponse represents the order response
type OrderResponse struct {
	ID              string                 `json:"id"`
	BuyerID         string                 `json:"buyer_id"`
	Status          domain.OrderStatus     `json:"status"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentVerified bool                   `json:"payment_verified"`
	SellerVerified  bool                   `json:"seller_verified"`
	VerifiedAt      *string                `json:"verified_at,omitempty"`
	Subtotal        string                 `json:"subtotal"`
	Tax             string                 `json:"tax"`
	Shipping        string                 `json:"shipping"`
	Total           string                 `json:"total"`
	Items           []OrderItemResponse    `json:"items"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID        string                `json:"product_id"`
	Name             string                `json:"name"`
	UnitPrice        string                `json:"unit_price"`
	Quantity         int                   `json:"quantity"`
	SellerID         *string               `json:"seller_id,omitempty"`
	CommissionAmount string                `json:"commission_amount"`
	SellerEarnings   string                `json:"seller_earnings"`
	ShippingStatus   domain.ShippingStatus `json:"shipping_status"`
	ShippedAt        *string               `json:"shipped_at,omitempty"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:        item.ProductID.String(),
			Name:             item.Name,
			UnitPrice:        item.UnitPrice.StringFixed(2),
			Quantity:         item.Quantity,
			CommissionAmount: item.CommissionAmount.StringFixed(2),
			SellerEarnings:   item.SellerEarnings.StringFixed(2),
			ShippingStatus:   item.ShippingStatus,
		}
		if item.SellerID != nil {
			s := item.SellerID.String()
			items[i].SellerID = &s
		}
		if item.ShippedAt != nil {
			t := item.ShippedAt.Format(timeFormat)
			items[i].ShippedAt = &t
		}
	}

	resp := OrderResponse{
		ID:              order.ID.String(),
		BuyerID:         order.BuyerID.String(),
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		PaymentVerified: order.Payment.VerifiedByAdmin,
		SellerVerified:  order.Payment.VerifiedBySeller,
		Subtotal:        order.Subtotal.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		Items:           items,
		CreatedAt:       order.CreatedAt.Format(timeFormat),
		UpdatedAt:       order.UpdatedAt.Format(timeFormat),
	}
	if order.Payment.VerifiedAt != nil {
		t := order.Payment.VerifiedAt.Format(timeFormat)
		resp.VerifiedAt = &t
	}
	return resp
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

// DisputeResponse represents the dispute response
type DisputeResponse struct {
	ID          string                  `json:"id"`
	OrderID     string                  `json:"order_id"`
	BuyerID     string                  `json:"buyer_id"`
	SellerID    *string                 `json:"seller_id,omitempty"`
	Reason      string                  `json:"reason"`
	Details     string                  `json:"details,omitempty"`
	Status      domain.DisputeStatus    `json:"status"`
	Resolution  string                  `json:"resolution,omitempty"`
	AdminNotes  string                  `json:"admin_notes,omitempty"`
	Attachments []domain.Attachment     `json:"attachments,omitempty"`
	Messages    []domain.Message        `json:"messages,omitempty"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

func toDisputeResponse(d *domain.Dispute, includeAdminNotes bool) DisputeResponse {
	resp := DisputeResponse{
		ID:          d.ID.String(),
		OrderID:     d.OrderID.String(),
		BuyerID:     d.BuyerID.String(),
		Reason:      d.Reason,
		Details:     d.Details,
		Status:      d.Status,
		Resolution:  d.Resolution,
		Attachments: d.Attachments,
		Messages:    d.Messages,
		CreatedAt:   d.CreatedAt.Format(timeFormat),
		UpdatedAt:   d.UpdatedAt.Format(timeFormat),
	}
	if d.SellerID != nil {
		s := d.SellerID.String()
		resp.SellerID = &s
	}
	if includeAdminNotes {
		resp.AdminNotes = d.AdminNotes
	}
	return resp
}

// NotificationResponse represents one notification row
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Link      string                 `json:"link,omitempty"`
	Icon      string                 `json:"icon,omitempty"`
	Severity  domain.Severity        `json:"severity"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Read      bool                   `json:"read"`
	ReadAt    *string                `json:"read_at,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		Icon:      n.Icon,
		Severity:  n.Severity,
		Meta:      n.Meta,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(timeFormat),
	}
	if n.ReadAt != nil {
		t := n.ReadAt.Format(timeFormat)
		resp.ReadAt = &t
	}
	return resp
}

// parsePaging reads limit/offset query params with safe defaults
func parsePaging(c *gin.Context) (limit, offset int) {
	limit = intQuery(c, "limit", 50)
	offset = intQuery(c, "offset", 0)
	return limit, offset
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
