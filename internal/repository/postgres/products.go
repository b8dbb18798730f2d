package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, seller_id, name, price, stock, commission_rate, is_active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	var sellerID uuid.NullUUID

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&sellerID,
		&product.Name,
		&product.Price,
		&product.Stock,
		&product.CommissionRate,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Error(err))
		return nil, err
	}

	if sellerID.Valid {
		sid := sellerID.UUID
		product.SellerID = &sid
	}

	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	var sellerID uuid.NullUUID
	if product.SellerID != nil {
		sellerID = uuid.NullUUID{UUID: *product.SellerID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, seller_id, name, price, stock, commission_rate, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		product.ID,
		sellerID,
		product.Name,
		product.Price,
		product.Stock,
		product.CommissionRate,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	return nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Conditional update keeps the check and the decrement in one statement
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
	`, id, qty, time.Now())
	if err != nil {
		r.logger.Error("Failed to decrement stock", zap.Error(err))
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *productRepository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = $3
		WHERE id = $1
	`, id, qty, time.Now())
	if err != nil {
		r.logger.Error("Failed to restore stock", zap.Error(err))
		return err
	}

	return nil
}
