package entities

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Curve identifies the signing scheme behind a custody address. The MPC
// custody provider yields one address per curve for every user.
type Curve string

const (
	CurveEd25519   Curve = "ed25519"
	CurveSecp256k1 Curve = "secp256k1"
)

// curvePriority fixes the order used to select the primary address.
// ed25519 wins because it is the Solana settlement address.
var curvePriority = []Curve{CurveEd25519, CurveSecp256k1}

// IsValid checks if the curve is supported.
func (c Curve) IsValid() bool {
	return c == CurveEd25519 || c == CurveSecp256k1
}

// ValidateAddress checks an address's format for this curve.
func (c Curve) ValidateAddress(address string) error {
	switch c {
	case CurveEd25519:
		raw, err := base58.Decode(address)
		if err != nil {
			return fmt.Errorf("address %q is not valid base58: %w", address, err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("address %q decodes to %d bytes, want 32", address, len(raw))
		}
		return nil
	case CurveSecp256k1:
		if !strings.HasPrefix(address, "0x") {
			return fmt.Errorf("address %q missing 0x prefix", address)
		}
		raw, err := hex.DecodeString(address[2:])
		if err != nil {
			return fmt.Errorf("address %q is not valid hex: %w", address, err)
		}
		if len(raw) != 20 {
			return fmt.Errorf("address %q decodes to %d bytes, want 20", address, len(raw))
		}
		return nil
	default:
		return fmt.Errorf("unsupported curve: %s", c)
	}
}

// SelectPrimaryAddress deterministically picks the primary address from a
// curve/address set using the fixed curve priority order. Repeat calls
// with the same input always select the same address.
func SelectPrimaryAddress(addressesByCurve map[Curve]string) (string, error) {
	for _, curve := range curvePriority {
		if addr, ok := addressesByCurve[curve]; ok && addr != "" {
			return addr, nil
		}
	}
	return "", fmt.Errorf("no address present for any supported curve")
}

// WalletStatus represents the lifecycle status of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
)

// IsValid checks if wallet status is valid.
func (s WalletStatus) IsValid() bool {
	return s == WalletStatusActive || s == WalletStatusSuspended
}

// Wallet represents a user's custody wallet. Created once during
// provisioning, mutated only by status transitions, never hard-deleted.
type Wallet struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	OwnerUserID      uuid.UUID        `json:"owner_user_id" db:"owner_user_id"`
	PrimaryAddress   string           `json:"primary_address" db:"primary_address"`
	AddressesByCurve map[Curve]string `json:"addresses_by_curve" db:"-"`
	Status           WalletStatus     `json:"status" db:"status"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Validate performs validation on the wallet.
func (w *Wallet) Validate() error {
	if w.OwnerUserID == uuid.Nil {
		return fmt.Errorf("owner user ID is required")
	}
	if len(w.AddressesByCurve) == 0 {
		return fmt.Errorf("at least one curve address is required")
	}
	for curve, addr := range w.AddressesByCurve {
		if !curve.IsValid() {
			return fmt.Errorf("unsupported curve: %s", curve)
		}
		if err := curve.ValidateAddress(addr); err != nil {
			return fmt.Errorf("invalid %s address: %w", curve, err)
		}
	}
	if w.PrimaryAddress == "" {
		return fmt.Errorf("primary address is required")
	}
	if !w.Status.IsValid() {
		return fmt.Errorf("invalid wallet status: %s", w.Status)
	}
	return nil
}

// IsActive reports whether the wallet can take part in transfers.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// Suspend transitions the wallet to suspended. Soft transition only;
// wallets are never hard-deleted.
func (w *Wallet) Suspend() {
	w.Status = WalletStatusSuspended
	w.UpdatedAt = time.Now()
}

// Activate transitions the wallet back to active.
func (w *Wallet) Activate() {
	w.Status = WalletStatusActive
	w.UpdatedAt = time.Now()
}

// GetDisplayAddress returns a user-friendly display of the primary address.
func (w *Wallet) GetDisplayAddress() string {
	if len(w.PrimaryAddress) <= 8 {
		return w.PrimaryAddress
	}
	return fmt.Sprintf("%s...%s", w.PrimaryAddress[:6], w.PrimaryAddress[len(w.PrimaryAddress)-4:])
}
