package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/pkg/errors"
)

// uniqueViolation is the postgres error code for a unique index conflict
const uniqueViolation = "23505"

type disputeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDisputeRepository creates a new dispute repository
func NewDisputeRepository(db *sql.DB, logger *zap.Logger) *disputeRepository {
	return &disputeRepository{
		db:     db,
		logger: logger,
	}
}

const disputeColumns = `
	id, order_id, buyer_id, seller_id, reason, details, status, resolution,
	admin_notes, attachments, messages, created_at, updated_at
`

func (r *disputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	attachmentsJSON, messagesJSON, err := encodeThread(dispute)
	if err != nil {
		return err
	}

	now := time.Now()
	if dispute.ID == uuid.Nil {
		dispute.ID = uuid.New()
	}
	if dispute.CreatedAt.IsZero() {
		dispute.CreatedAt = now
	}
	dispute.UpdatedAt = now

	var sellerID uuid.NullUUID
	if dispute.SellerID != nil {
		sellerID = uuid.NullUUID{UUID: *dispute.SellerID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO disputes (id, order_id, buyer_id, seller_id, reason, details, status,
			resolution, admin_notes, attachments, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		dispute.ID,
		dispute.OrderID,
		dispute.BuyerID,
		sellerID,
		dispute.Reason,
		dispute.Details,
		dispute.Status,
		dispute.Resolution,
		dispute.AdminNotes,
		attachmentsJSON,
		messagesJSON,
		dispute.CreatedAt,
		dispute.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return &errors.ErrConflict{Resource: "dispute", Message: "A dispute already exists for this order"}
		}
		r.logger.Error("Failed to create dispute", zap.Error(err))
		return err
	}

	return nil
}

func (r *disputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dispute, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	dispute, err := scanDispute(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "dispute", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get dispute", zap.Error(err))
		return nil, err
	}
	return dispute, nil
}

func (r *disputeRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Dispute, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE order_id = $1`, orderID)
	dispute, err := scanDispute(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "dispute", ID: orderID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get dispute by order", zap.Error(err))
		return nil, err
	}
	return dispute, nil
}

func (r *disputeRepository) Update(ctx context.Context, dispute *domain.Dispute) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	attachmentsJSON, messagesJSON, err := encodeThread(dispute)
	if err != nil {
		return err
	}

	dispute.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, resolution = $3, admin_notes = $4, attachments = $5,
			messages = $6, updated_at = $7
		WHERE id = $1
	`,
		dispute.ID,
		dispute.Status,
		dispute.Resolution,
		dispute.AdminNotes,
		attachmentsJSON,
		messagesJSON,
		dispute.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update dispute", zap.Error(err))
		return err
	}

	return nil
}

func (r *disputeRepository) ListByStatus(ctx context.Context, status domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE status = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list disputes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var disputes []*domain.Dispute
	for rows.Next() {
		dispute, err := scanDispute(rows)
		if err != nil {
			r.logger.Error("Failed to scan dispute", zap.Error(err))
			return nil, err
		}
		disputes = append(disputes, dispute)
	}

	return disputes, rows.Err()
}

func encodeThread(dispute *domain.Dispute) ([]byte, []byte, error) {
	attachments := dispute.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	messages := dispute.Messages
	if messages == nil {
		messages = []domain.Message{}
	}

	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, &errors.ErrDependency{Op: "encode dispute attachments", Err: err}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, nil, &errors.ErrDependency{Op: "encode dispute messages", Err: err}
	}
	return attachmentsJSON, messagesJSON, nil
}

func scanDispute(row rowScanner) (*domain.Dispute, error) {
	var dispute domain.Dispute
	var sellerID uuid.NullUUID
	var attachmentsJSON, messagesJSON []byte

	err := row.Scan(
		&dispute.ID,
		&dispute.OrderID,
		&dispute.BuyerID,
		&sellerID,
		&dispute.Reason,
		&dispute.Details,
		&dispute.Status,
		&dispute.Resolution,
		&dispute.AdminNotes,
		&attachmentsJSON,
		&messagesJSON,
		&dispute.CreatedAt,
		&dispute.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sellerID.Valid {
		sid := sellerID.UUID
		dispute.SellerID = &sid
	}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &dispute.Attachments); err != nil {
			return nil, err
		}
	}
	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &dispute.Messages); err != nil {
			return nil, err
		}
	}

	return &dispute, nil
}
