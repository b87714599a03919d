package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/wallet"
)

// WalletProvisioner is the provisioning surface the handler depends on.
type WalletProvisioner interface {
	Provision(ctx context.Context, ownerUserID uuid.UUID, addressesByCurve map[entities.Curve]string) (*entities.Wallet, error)
	Metrics() wallet.MetricsSnapshot
}

// WalletReader resolves wallets for lookups.
type WalletReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
}

// SnapshotReader lists the stored balance snapshots of a wallet.
type SnapshotReader interface {
	GetAllForWallet(ctx context.Context, walletID uuid.UUID) ([]*entities.BalanceRecord, error)
}

// WalletHandler serves wallet provisioning and lookup endpoints.
type WalletHandler struct {
	provisioner WalletProvisioner
	wallets     WalletReader
	snapshots   SnapshotReader
	logger      *zap.Logger
}

// NewWalletHandler creates a wallet handler.
func NewWalletHandler(provisioner WalletProvisioner, wallets WalletReader, snapshots SnapshotReader, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		provisioner: provisioner,
		wallets:     wallets,
		snapshots:   snapshots,
		logger:      logger,
	}
}

type createWalletRequest struct {
	OwnerUserID      string            `json:"owner_user_id" binding:"required"`
	AddressesByCurve map[string]string `json:"addresses_by_curve" binding:"required"`
}

type walletResponse struct {
	ID               string            `json:"id"`
	OwnerUserID      string            `json:"owner_user_id"`
	PrimaryAddress   string            `json:"primary_address"`
	AddressesByCurve map[string]string `json:"addresses_by_curve"`
	Status           string            `json:"status"`
	CreatedAt        string            `json:"created_at"`
}

func toWalletResponse(w *entities.Wallet) walletResponse {
	addresses := make(map[string]string, len(w.AddressesByCurve))
	for curve, addr := range w.AddressesByCurve {
		addresses[string(curve)] = addr
	}
	return walletResponse{
		ID:               w.ID.String(),
		OwnerUserID:      w.OwnerUserID.String(),
		PrimaryAddress:   w.PrimaryAddress,
		AddressesByCurve: addresses,
		Status:           string(w.Status),
		CreatedAt:        w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateWallet handles POST /api/v1/wallets. Repeated calls for the same
// owner return the existing wallet.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req createWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperrors.ValidationError("body", err.Error()))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerUserID)
	if err != nil {
		writeError(c, h.logger, apperrors.ValidationError("owner_user_id", "must be a valid UUID"))
		return
	}

	addresses := make(map[entities.Curve]string, len(req.AddressesByCurve))
	for curve, addr := range req.AddressesByCurve {
		addresses[entities.Curve(curve)] = addr
	}

	created, err := h.provisioner.Provision(c.Request.Context(), ownerID, addresses)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toWalletResponse(created))
}

// GetWallet handles GET /api/v1/wallets/:id. The balances returned here
// are the stored snapshots, not a live reconciliation; the balance
// endpoints serve reconciled values.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, apperrors.ValidationError("id", "must be a valid UUID"))
		return
	}

	w, err := h.wallets.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	records, err := h.snapshots.GetAllForWallet(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	snapshots := make([]gin.H, 0, len(records))
	for _, r := range records {
		snapshots = append(snapshots, gin.H{
			"token":              string(r.Token),
			"amount_minor_units": r.AmountMinorUnits,
			"display_amount":     r.DisplayAmount(),
			"last_updated_at":    r.LastUpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":           toWalletResponse(w),
		"display_address":  w.GetDisplayAddress(),
		"stored_snapshots": snapshots,
	})
}

// GetProvisioningMetrics handles GET /api/v1/provisioning/metrics.
func (h *WalletHandler) GetProvisioningMetrics(c *gin.Context) {
	snap := h.provisioner.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"attempts":               snap.Attempts,
		"successes":              snap.Successes,
		"failures":               snap.Failures,
		"retries":                snap.Retries,
		"avg_success_latency_ms": snap.AvgSuccessLatency.Milliseconds(),
	})
}
