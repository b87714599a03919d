package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

// BalanceRepository handles balance snapshot persistence
type BalanceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *sqlx.DB, logger *zap.Logger) *BalanceRepository {
	return &BalanceRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the stored snapshot for one wallet/token pair
func (r *BalanceRepository) Get(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (*entities.BalanceRecord, error) {
	query := `
		SELECT wallet_id, token, amount_minor_units, last_updated_at
		FROM balances
		WHERE wallet_id = $1 AND token = $2`

	record := &entities.BalanceRecord{}
	err := r.db.GetContext(ctx, record, query, walletID, string(token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("balance")
		}
		r.logger.Error("Failed to get balance record",
			zap.Error(err),
			zap.String("wallet_id", walletID.String()),
			zap.String("token", string(token)))
		return nil, apperrors.StoreUnavailableError("get balance record", err)
	}
	return record, nil
}

// GetAllForWallet retrieves all stored snapshots for a wallet
func (r *BalanceRepository) GetAllForWallet(ctx context.Context, walletID uuid.UUID) ([]*entities.BalanceRecord, error) {
	query := `
		SELECT wallet_id, token, amount_minor_units, last_updated_at
		FROM balances
		WHERE wallet_id = $1
		ORDER BY token ASC`

	var records []*entities.BalanceRecord
	if err := r.db.SelectContext(ctx, &records, query, walletID); err != nil {
		r.logger.Error("Failed to get balance records",
			zap.Error(err),
			zap.String("wallet_id", walletID.String()))
		return nil, apperrors.StoreUnavailableError("get balance records", err)
	}
	return records, nil
}

// UpsertSnapshot writes a freshly observed chain value. Last writer
// wins: the chain is authoritative, so overwriting with a newer read is
// always correct.
func (r *BalanceRepository) UpsertSnapshot(ctx context.Context, record *entities.BalanceRecord) error {
	if err := record.Validate(); err != nil {
		return apperrors.ValidationError("balance_record", err.Error())
	}

	query := `
		INSERT INTO balances (wallet_id, token, amount_minor_units, last_updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_id, token)
		DO UPDATE SET
			amount_minor_units = EXCLUDED.amount_minor_units,
			last_updated_at = EXCLUDED.last_updated_at`

	if _, err := r.db.ExecContext(ctx, query,
		record.WalletID,
		string(record.Token),
		record.AmountMinorUnits,
		record.LastUpdatedAt,
	); err != nil {
		r.logger.Error("Failed to upsert balance snapshot",
			zap.Error(err),
			zap.String("wallet_id", record.WalletID.String()),
			zap.String("token", string(record.Token)))
		return apperrors.StoreUnavailableError("upsert balance snapshot", err)
	}

	r.logger.Debug("Balance snapshot written",
		zap.String("wallet_id", record.WalletID.String()),
		zap.String("token", string(record.Token)),
		zap.Uint64("amount_minor_units", record.AmountMinorUnits))
	return nil
}
