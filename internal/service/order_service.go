package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/mailer"
	"github.com/jafarshop/marketapi/internal/repository"
	"github.com/jafarshop/marketapi/pkg/errors"
)

// statusesThatEmail are the shared-status values that trigger a buyer email
var statusesThatEmail = map[domain.OrderStatus]bool{
	domain.OrderStatusPaid:       true,
	domain.OrderStatusProcessing: true,
	domain.OrderStatusShipped:    true,
	domain.OrderStatusCompleted:  true,
	domain.OrderStatusCancelled:  true,
}

// OrderService is the fulfillment coordinator: it consults the transition
// rules, mutates and persists the order aggregate, and hands the resulting
// side effects to the dispatcher.
type OrderService struct {
	repos          *repository.Repositories
	dispatcher     *Dispatcher
	commissionRate decimal.Decimal
	taxRate        decimal.Decimal
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, dispatcher *Dispatcher, commissionRate, taxRate float64, logger *zap.Logger) *OrderService {
	return &OrderService{
		repos:          repos,
		dispatcher:     dispatcher,
		commissionRate: domain.ClampCommissionRate(decimal.NewFromFloat(commissionRate)),
		taxRate:        decimal.NewFromFloat(taxRate),
		logger:         logger,
	}
}

// CreateOrder validates the requested items against the catalog, computes
// the per-seller commission split and order totals, and persists the order
// in pending status. The confirmation email is best-effort.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero

	for _, reqItem := range req.Items {
		productID, err := uuid.Parse(reqItem.ProductID)
		if err != nil {
			return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid product id %q", reqItem.ProductID)}
		}

		product, err := s.repos.Product.GetByID(ctx, productID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("product %s is not available", reqItem.ProductID)}
			}
			return nil, &errors.ErrDependency{Op: "load product", Err: err}
		}
		if !product.IsActive {
			return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("product %s is not available", product.Name)}
		}

		rate := product.CommissionRate
		if rate.IsZero() {
			rate = s.commissionRate
		}
		rate = domain.ClampCommissionRate(rate)

		commission, earnings := domain.SplitLineTotal(product.Price, reqItem.Quantity, rate)
		lineTotal := commission.Add(earnings)
		subtotal = subtotal.Add(lineTotal)

		items = append(items, domain.OrderItem{
			ProductID:        product.ID,
			Name:             product.Name,
			UnitPrice:        product.Price,
			Quantity:         reqItem.Quantity,
			SellerID:         product.SellerID,
			CommissionRate:   rate,
			CommissionAmount: commission,
			SellerEarnings:   earnings,
			ShippingStatus:   domain.ShippingStatusPending,
		})
	}

	// Decrement only once the whole cart has validated, so a rejected
	// checkout never consumes stock.
	if err := s.reserveStock(ctx, items); err != nil {
		return nil, err
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)
	shipping := decimal.Zero

	order := &domain.Order{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Total:           subtotal.Add(tax).Add(shipping).Round(2),
		Status:          domain.OrderStatusPending,
	}

	if err := s.repos.Order.Create(ctx, order); err != nil {
		s.releaseStock(ctx, items)
		return nil, &errors.ErrDependency{Op: "create order", Err: err}
	}

	s.recordEvent(ctx, order.ID, "order_created", map[string]interface{}{
		"buyer_id": buyerID.String(),
		"total":    order.Total.StringFixed(2),
	})

	var effects []Effect
	if email := s.buyerEmail(ctx, buyerID); email != "" {
		subject, html := mailer.OrderConfirmation(order)
		effects = append(effects, SendEmail{To: email, Subject: subject, HTML: html})
	}
	s.dispatcher.Dispatch(ctx, effects)

	return order, nil
}

// reserveStock decrements stock for every line item. If any item cannot be
// reserved the earlier reservations are released before returning.
func (s *OrderService) reserveStock(ctx context.Context, items []domain.OrderItem) error {
	reserved := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		ok, err := s.repos.Product.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.releaseStock(ctx, reserved)
			return &errors.ErrDependency{Op: "reserve stock", Err: err}
		}
		if !ok {
			s.releaseStock(ctx, reserved)
			return &errors.ErrInvalidInput{Message: fmt.Sprintf("insufficient stock for %s", item.Name)}
		}
		reserved = append(reserved, item)
	}
	return nil
}

func (s *OrderService) releaseStock(ctx context.Context, items []domain.OrderItem) {
	for _, item := range items {
		if err := s.repos.Product.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn("Failed to release reserved stock",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

// AdminSetStatus applies an admin-requested shared status change. A same-
// status request is a pure no-op: nothing is persisted and no effects fire.
func (s *OrderService) AdminSetStatus(ctx context.Context, orderID uuid.UUID, requested domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := domain.DecideAdminTransition(order.Status, requested); err != nil {
		return nil, err
	}
	if requested == order.Status {
		return order, nil
	}

	previous := order.Status
	order.Status = requested
	s.stampAdminVerification(order)

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, &errors.ErrDependency{Op: "update order", Err: err}
	}

	s.recordEvent(ctx, order.ID, "status_change", map[string]interface{}{
		"from": string(previous),
		"to":   string(requested),
		"by":   "admin",
	})

	effects := []Effect{
		Notify{
			Recipients: []uuid.UUID{order.BuyerID},
			Payload: NotificationPayload{
				Type:     "order:status",
				Title:    "Order update",
				Body:     fmt.Sprintf("Your order is now %s.", requested),
				Link:     "/orders/" + order.ID.String(),
				Severity: statusSeverity(requested),
			},
		},
		Notify{
			Recipients: domain.SellerIDs(order.Items),
			Payload: NotificationPayload{
				Type:     "order:status-admin",
				Title:    "Order update",
				Body:     fmt.Sprintf("An order containing your items is now %s.", requested),
				Link:     "/seller/orders/" + order.ID.String(),
				Severity: statusSeverity(requested),
			},
		},
	}
	if statusesThatEmail[requested] {
		if email := s.buyerEmail(ctx, order.BuyerID); email != "" {
			subject, html := mailer.OrderStatusUpdate(order)
			effects = append(effects, SendEmail{To: email, Subject: subject, HTML: html})
		}
	}
	s.dispatcher.Dispatch(ctx, effects)

	return order, nil
}

// AdminVerifyPayment stamps the admin-side payment verification and, for a
// pending order, releases it to paid.
func (s *OrderService) AdminVerifyPayment(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return nil, &errors.ErrInvalidTransition{
			From:   string(order.Status),
			To:     string(order.Status),
			Reason: "Locked orders cannot be re-verified",
		}
	}
	switch order.Status {
	case domain.OrderStatusPending, domain.OrderStatusPaid, domain.OrderStatusProcessing:
	default:
		return nil, &errors.ErrInvalidTransition{
			From:   string(order.Status),
			To:     string(order.Status),
			Reason: "Order already in fulfillment, verification skipped",
		}
	}

	if order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusPaid
	}
	s.stampAdminVerification(order)

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, &errors.ErrDependency{Op: "update order", Err: err}
	}

	s.recordEvent(ctx, order.ID, "payment_verified", map[string]interface{}{
		"by": "admin",
	})

	effects := []Effect{
		Notify{Recipients: []uuid.UUID{order.BuyerID}, Payload: NotificationPayload{
			Type:     "order:verified",
			Title:    "Payment verified",
			Body:     "Payment has been verified and the order is released for fulfillment.",
			Link:     "/orders/" + order.ID.String(),
			Severity: domain.SeveritySuccess,
		}},
		Notify{Recipients: domain.SellerIDs(order.Items), Payload: NotificationPayload{
			Type:     "order:verified",
			Title:    "Payment verified",
			Body:     "Payment was verified for an order containing your items.",
			Link:     "/seller/orders/" + order.ID.String(),
			Severity: domain.SeveritySuccess,
		}},
	}
	if email := s.buyerEmail(ctx, order.BuyerID); email != "" {
		subject, html := mailer.PaymentVerified(order)
		effects = append(effects, SendEmail{To: email, Subject: subject, HTML: html})
	}
	s.dispatcher.Dispatch(ctx, effects)

	return order, nil
}

// SellerUpdateOrder applies a seller's shared-status change and/or payment
// confirmation flag. A seller can only change the shared status of an order
// whose items are exclusively theirs.
func (s *OrderService) SellerUpdateOrder(ctx context.Context, sellerID, orderID uuid.UUID, req SellerUpdateOrderRequest) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if len(order.ItemsForSeller(sellerID)) == 0 {
		return nil, &errors.ErrForbidden{Message: "You have no items in this order"}
	}

	statusChanged := false
	if req.Status != nil {
		requested := domain.OrderStatus(*req.Status)

		if s.hasOtherSellers(order, sellerID) && requested != order.Status {
			return nil, &errors.ErrForbidden{
				Message: "Orders with items from multiple sellers can only be updated by an administrator",
			}
		}

		if err := domain.DecideSellerTransition(order.Status, requested, order.Payment.VerifiedByAdmin); err != nil {
			return nil, err
		}
		if requested != order.Status {
			previous := order.Status
			order.Status = requested
			statusChanged = true

			s.recordEvent(ctx, order.ID, "status_change", map[string]interface{}{
				"from": string(previous),
				"to":   string(requested),
				"by":   "seller",
			})
		}
	}

	if req.PaymentVerified != nil {
		order.Payment.VerifiedBySeller = *req.PaymentVerified
		if *req.PaymentVerified && order.Payment.SellerVerifiedAt == nil {
			now := time.Now()
			order.Payment.SellerVerifiedAt = &now
		}
	}

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, &errors.ErrDependency{Op: "update order", Err: err}
	}

	var effects []Effect
	if statusChanged && statusesThatEmail[order.Status] {
		if email := s.buyerEmail(ctx, order.BuyerID); email != "" {
			subject, html := mailer.OrderStatusUpdate(order)
			effects = append(effects, SendEmail{To: email, Subject: subject, HTML: html})
		}
	}
	s.dispatcher.Dispatch(ctx, effects)

	return order, nil
}

// SellerSetItemShipping updates the shipping sub-status of one line item
// owned by the seller. The shared order status is untouched.
func (s *OrderService) SellerSetItemShipping(ctx context.Context, sellerID, orderID, productID uuid.UUID, shipping domain.ShippingStatus) (*domain.Order, error) {
	if !shipping.IsValid() {
		return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid shipping status %q", shipping)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, &errors.ErrInvalidTransition{
			From:   string(order.Status),
			To:     string(order.Status),
			Reason: "Completed or cancelled orders are locked",
		}
	}

	found := false
	for i := range order.Items {
		item := &order.Items[i]
		if item.ProductID != productID {
			continue
		}
		found = true

		if item.SellerID == nil || *item.SellerID != sellerID {
			return nil, &errors.ErrForbidden{Message: "This item belongs to another seller"}
		}

		if shipping == domain.ShippingStatusShipped && item.ShippingStatus != domain.ShippingStatusShipped {
			now := time.Now()
			item.ShippedAt = &now
		}
		item.ShippingStatus = shipping
		break
	}
	if !found {
		return nil, &errors.ErrNotFound{Resource: "order item", ID: productID.String()}
	}

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, &errors.ErrDependency{Op: "update order", Err: err}
	}

	s.recordEvent(ctx, order.ID, "item_shipping_change", map[string]interface{}{
		"product_id": productID.String(),
		"seller_id":  sellerID.String(),
		"to":         string(shipping),
	})

	return order, nil
}

// GetOrderForBuyer returns an order owned by the buyer. Orders belonging to
// other buyers are reported as not found.
func (s *OrderService) GetOrderForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return order, nil
}

// GetOrder returns any order; admin use only
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repos.Order.GetByID(ctx, orderID)
}

// ListBuyerOrders returns the buyer's orders, newest first
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return s.repos.Order.ListByBuyer(ctx, buyerID, clampLimit(limit), clampOffset(offset))
}

// ListSellerOrders returns orders containing the seller's items, with each
// order's item partition filtered down to that seller.
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	orders, err := s.repos.Order.ListBySeller(ctx, sellerID, clampLimit(limit), clampOffset(offset))
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = order.ItemsForSeller(sellerID)
	}
	return orders, nil
}

// AdminListOrders returns all orders, optionally filtered by status
func (s *OrderService) AdminListOrders(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	if status != "" {
		if !status.IsValid() {
			return nil, &errors.ErrInvalidInput{Message: fmt.Sprintf("invalid order status %q", status)}
		}
		return s.repos.Order.ListByStatus(ctx, status, clampLimit(limit), clampOffset(offset))
	}
	return s.repos.Order.List(ctx, clampLimit(limit), clampOffset(offset))
}

// stampAdminVerification marks the order as admin-verified for payment.
// The timestamp is written once and never overwritten.
func (s *OrderService) stampAdminVerification(order *domain.Order) {
	switch order.Status {
	case domain.OrderStatusPaid, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusCompleted:
		order.Payment.VerifiedByAdmin = true
		if order.Payment.VerifiedAt == nil {
			now := time.Now()
			order.Payment.VerifiedAt = &now
		}
	}
}

// hasOtherSellers reports whether any item belongs to a different seller
func (s *OrderService) hasOtherSellers(order *domain.Order, sellerID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.SellerID != nil && *item.SellerID != sellerID {
			return true
		}
	}
	return false
}

// buyerEmail resolves the buyer's address for best-effort mail; an empty
// string suppresses the email effect
func (s *OrderService) buyerEmail(ctx context.Context, buyerID uuid.UUID) string {
	user, err := s.repos.User.GetByID(ctx, buyerID)
	if err != nil {
		s.logger.Warn("Failed to resolve buyer email", zap.String("buyer_id", buyerID.String()), zap.Error(err))
		return ""
	}
	return user.Email
}

// recordEvent appends an audit row; failures are logged, never surfaced
func (s *OrderService) recordEvent(ctx context.Context, orderID uuid.UUID, eventType string, data map[string]interface{}) {
	err := s.repos.OrderEvent.Create(ctx, &domain.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
	})
	if err != nil {
		s.logger.Warn("Failed to record order event", zap.String("event", eventType), zap.Error(err))
	}
}

func statusSeverity(status domain.OrderStatus) domain.Severity {
	switch status {
	case domain.OrderStatusCompleted:
		return domain.SeveritySuccess
	case domain.OrderStatusCancelled:
		return domain.SeverityDanger
	default:
		return domain.SeverityInfo
	}
}

func clampLimit(limit int) int {
	if limit < 1 || limit > 100 {
		return 50
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
