package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// WalletRepository implements wallet persistence using PostgreSQL
type WalletRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *sqlx.DB, logger *zap.Logger) *WalletRepository {
	return &WalletRepository{
		db:     db,
		logger: logger,
	}
}

const walletColumns = `id, owner_user_id, primary_address, addresses_by_curve, status, created_at, updated_at`

func (r *WalletRepository) scanWallet(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Wallet, error) {
	wallet := &entities.Wallet{}
	var addresses []byte

	err := row.Scan(
		&wallet.ID,
		&wallet.OwnerUserID,
		&wallet.PrimaryAddress,
		&addresses,
		&wallet.Status,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addresses, &wallet.AddressesByCurve); err != nil {
		return nil, fmt.Errorf("failed to decode curve addresses: %w", err)
	}
	return wallet, nil
}

// CreateWithBalances persists a wallet and its zero-valued balance seeds
// as a single transaction. Either the wallet row and every balance row
// become visible together, or none do.
func (r *WalletRepository) CreateWithBalances(ctx context.Context, wallet *entities.Wallet, tokens []entities.TokenKind) error {
	addresses, err := json.Marshal(wallet.AddressesByCurve)
	if err != nil {
		return fmt.Errorf("failed to encode curve addresses: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.StoreUnavailableError("begin provisioning transaction", err)
	}
	defer tx.Rollback()

	walletQuery := `
		INSERT INTO wallets (id, owner_user_id, primary_address, addresses_by_curve, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := tx.ExecContext(ctx, walletQuery,
		wallet.ID,
		wallet.OwnerUserID,
		wallet.PrimaryAddress,
		addresses,
		string(wallet.Status),
		wallet.CreatedAt,
		wallet.UpdatedAt,
	); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return apperrors.ConflictError("wallet", "primary address or owner already claimed")
		}
		r.logger.Error("Failed to insert wallet",
			zap.Error(err),
			zap.String("owner_user_id", wallet.OwnerUserID.String()))
		return apperrors.StoreUnavailableError("insert wallet", err)
	}

	balanceQuery := `
		INSERT INTO balances (wallet_id, token, amount_minor_units, last_updated_at)
		VALUES ($1, $2, $3, $4)`

	for _, token := range tokens {
		seed := entities.ZeroBalanceRecord(wallet.ID, token)
		if _, err := tx.ExecContext(ctx, balanceQuery, seed.WalletID, string(seed.Token), seed.AmountMinorUnits, seed.LastUpdatedAt); err != nil {
			r.logger.Error("Failed to seed balance record",
				zap.Error(err),
				zap.String("wallet_id", wallet.ID.String()),
				zap.String("token", string(token)))
			return apperrors.StoreUnavailableError("seed balance record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StoreUnavailableError("commit provisioning transaction", err)
	}

	r.logger.Debug("Wallet created with seeded balances",
		zap.String("wallet_id", wallet.ID.String()),
		zap.Int("token_count", len(tokens)))
	return nil
}

// GetByID retrieves a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE id = $1`, walletColumns)

	wallet, err := r.scanWallet(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("wallet")
		}
		r.logger.Error("Failed to get wallet by ID", zap.Error(err), zap.String("wallet_id", id.String()))
		return nil, apperrors.StoreUnavailableError("get wallet", err)
	}
	return wallet, nil
}

// GetByOwner retrieves the wallet owned by a user. Exactly one wallet
// exists per user once provisioned.
func (r *WalletRepository) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE owner_user_id = $1`, walletColumns)

	wallet, err := r.scanWallet(r.db.QueryRowxContext(ctx, query, ownerUserID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("wallet")
		}
		r.logger.Error("Failed to get wallet by owner", zap.Error(err), zap.String("owner_user_id", ownerUserID.String()))
		return nil, apperrors.StoreUnavailableError("get wallet by owner", err)
	}
	return wallet, nil
}

// GetByPrimaryAddress retrieves the wallet claiming a primary address
func (r *WalletRepository) GetByPrimaryAddress(ctx context.Context, address string) (*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE primary_address = $1`, walletColumns)

	wallet, err := r.scanWallet(r.db.QueryRowxContext(ctx, query, address))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("wallet")
		}
		r.logger.Error("Failed to get wallet by primary address", zap.Error(err))
		return nil, apperrors.StoreUnavailableError("get wallet by primary address", err)
	}
	return wallet, nil
}

// UpdateStatus transitions a wallet's status. Wallets are never deleted;
// status transitions are the only mutation after creation.
func (r *WalletRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.WalletStatus) error {
	query := `UPDATE wallets SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, string(status), time.Now())
	if err != nil {
		r.logger.Error("Failed to update wallet status", zap.Error(err), zap.String("wallet_id", id.String()))
		return apperrors.StoreUnavailableError("update wallet status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.StoreUnavailableError("update wallet status", err)
	}
	if rows == 0 {
		return apperrors.NotFoundError("wallet")
	}
	return nil
}

// ListActive returns all wallets eligible for the slow refresh sweep.
func (r *WalletRepository) ListActive(ctx context.Context) ([]*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE status = $1 ORDER BY created_at ASC`, walletColumns)

	rows, err := r.db.QueryxContext(ctx, query, string(entities.WalletStatusActive))
	if err != nil {
		r.logger.Error("Failed to list active wallets", zap.Error(err))
		return nil, apperrors.StoreUnavailableError("list active wallets", err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := r.scanWallet(rows)
		if err != nil {
			return nil, apperrors.StoreUnavailableError("scan wallet row", err)
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreUnavailableError("iterate wallet rows", err)
	}
	return wallets, nil
}
