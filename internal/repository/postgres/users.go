package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/pkg/errors"
)

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `
	id, external_uid, email, display_name, role, seller_status, api_key_hash, created_at, updated_at
`

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByExternalUID(ctx context.Context, externalUID string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_uid = $1`, externalUID)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: externalUID}
	}
	if err != nil {
		r.logger.Error("Failed to get user by external uid", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, external_uid, email, display_name, role, seller_status, api_key_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID,
		user.ExternalUID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.SellerStatus,
		user.APIKeyHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return &errors.ErrConflict{Resource: "user", Message: "A user with this external uid already exists"}
		}
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, display_name = $3, role = $4, seller_status = $5, api_key_hash = $6, updated_at = $7
		WHERE id = $1
	`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.SellerStatus,
		user.APIKeyHash,
		user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Error(err))
		return err
	}

	return nil
}

func (r *userRepository) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE role = $1`, domain.RoleAdmin)
	if err != nil {
		r.logger.Error("Failed to list admin ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var apiKeyHash sql.NullString

	err := row.Scan(
		&user.ID,
		&user.ExternalUID,
		&user.Email,
		&user.DisplayName,
		&user.Role,
		&user.SellerStatus,
		&apiKeyHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if apiKeyHash.Valid {
		user.APIKeyHash = &apiKeyHash.String
	}

	return &user, nil
}
