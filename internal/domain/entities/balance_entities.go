package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BalanceRecord is the stored snapshot of a wallet's balance for one
// token kind, in the token's smallest on-chain unit. The chain is the
// single source of truth: records are idempotent snapshots written by
// the reconciler, never deltas applied by business logic.
type BalanceRecord struct {
	WalletID         uuid.UUID `json:"wallet_id" db:"wallet_id"`
	Token            TokenKind `json:"token" db:"token"`
	AmountMinorUnits uint64    `json:"amount_minor_units" db:"amount_minor_units"`
	LastUpdatedAt    time.Time `json:"last_updated_at" db:"last_updated_at"`
}

// Validate performs validation on the balance record.
func (b *BalanceRecord) Validate() error {
	if b.WalletID == uuid.Nil {
		return fmt.Errorf("wallet ID is required")
	}
	if !b.Token.IsValid() {
		return fmt.Errorf("unsupported token kind: %s", b.Token)
	}
	return nil
}

// DisplayAmount returns the record's amount as a human decimal string.
func (b *BalanceRecord) DisplayAmount() string {
	return b.Token.DisplayAmount(b.AmountMinorUnits)
}

// ZeroBalanceRecord builds the seed record written at provisioning time.
func ZeroBalanceRecord(walletID uuid.UUID, token TokenKind) *BalanceRecord {
	return &BalanceRecord{
		WalletID:         walletID,
		Token:            token,
		AmountMinorUnits: 0,
		LastUpdatedAt:    time.Now(),
	}
}
