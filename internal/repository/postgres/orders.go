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

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, buyer_id, shipping_address, payment_method,
	verified_by_admin, verified_by_seller, verified_at, seller_verified_at,
	subtotal, tax, shipping, total, status, created_at, updated_at
`

// itemQuery normalizes the seller reference at the data-access boundary:
// legacy rows may carry the seller only on the product, so the item's
// seller_id is coalesced with the product's. Business logic above this
// layer sees exactly one item shape.
const itemQuery = `
	SELECT oi.product_id, oi.name, oi.unit_price, oi.quantity,
	       COALESCE(oi.seller_id, p.seller_id),
	       oi.commission_rate, oi.commission_amount, oi.seller_earnings,
	       oi.shipping_status, oi.shipped_at
	FROM order_items oi
	LEFT JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = $1
	ORDER BY oi.position
`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return &errors.ErrDependency{Op: "encode shipping address", Err: err}
	}

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, shipping_address, payment_method,
			verified_by_admin, verified_by_seller, verified_at, seller_verified_at,
			subtotal, tax, shipping, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		order.ID,
		order.BuyerID,
		addressJSON,
		order.PaymentMethod,
		order.Payment.VerifiedByAdmin,
		order.Payment.VerifiedBySeller,
		order.Payment.VerifiedAt,
		order.Payment.SellerVerifiedAt,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", zap.Error(err))
		return err
	}

	for i, item := range order.Items {
		var sellerID uuid.NullUUID
		if item.SellerID != nil {
			sellerID = uuid.NullUUID{UUID: *item.SellerID, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, unit_price,
				quantity, seller_id, commission_rate, commission_amount, seller_earnings,
				shipping_status, shipped_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			order.ID,
			i,
			item.ProductID,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			sellerID,
			item.CommissionRate,
			item.CommissionAmount,
			item.SellerEarnings,
			item.ShippingStatus,
			item.ShippedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert order item", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, err
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, verified_by_admin = $3, verified_by_seller = $4,
			verified_at = $5, seller_verified_at = $6, updated_at = $7
		WHERE id = $1
	`,
		order.ID,
		order.Status,
		order.Payment.VerifiedByAdmin,
		order.Payment.VerifiedBySeller,
		order.Payment.VerifiedAt,
		order.Payment.SellerVerifiedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update order", zap.Error(err))
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			UPDATE order_items
			SET shipping_status = $3, shipped_at = $4
			WHERE order_id = $1 AND product_id = $2
		`,
			order.ID,
			item.ProductID,
			item.ShippingStatus,
			item.ShippedAt,
		)
		if err != nil {
			r.logger.Error("Failed to update order item", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, buyerID, limit, offset)
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx, `
		SELECT DISTINCT o.id, o.buyer_id, o.shipping_address, o.payment_method,
			o.verified_by_admin, o.verified_by_seller, o.verified_at, o.seller_verified_at,
			o.subtotal, o.tax, o.shipping, o.total, o.status, o.created_at, o.updated_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE COALESCE(oi.seller_id, p.seller_id) = $1
		ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`, sellerID, limit, offset)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		order.Items, err = r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, itemQuery, orderID)
	if err != nil {
		r.logger.Error("Failed to load order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var sellerID uuid.NullUUID
		var shippedAt sql.NullTime

		err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&sellerID,
			&item.CommissionRate,
			&item.CommissionAmount,
			&item.SellerEarnings,
			&item.ShippingStatus,
			&shippedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan order item", zap.Error(err))
			return nil, err
		}

		if sellerID.Valid {
			id := sellerID.UUID
			item.SellerID = &id
		}
		if shippedAt.Valid {
			t := shippedAt.Time
			item.ShippedAt = &t
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var addressJSON []byte
	var verifiedAt, sellerVerifiedAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.BuyerID,
		&addressJSON,
		&order.PaymentMethod,
		&order.Payment.VerifiedByAdmin,
		&order.Payment.VerifiedBySeller,
		&verifiedAt,
		&sellerVerifiedAt,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		order.Payment.VerifiedAt = &t
	}
	if sellerVerifiedAt.Valid {
		t := sellerVerifiedAt.Time
		order.Payment.SellerVerifiedAt = &t
	}

	return &order, nil
}
