package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/balance"
)

// BalanceReader is the cached balance surface the handler depends on.
type BalanceReader interface {
	Get(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (balance.Balance, error)
	GetAll(ctx context.Context, walletID uuid.UUID) ([]balance.Balance, error)
	Invalidate(ctx context.Context, walletID uuid.UUID, tokens ...entities.TokenKind) error
}

// ActivityRecorder feeds the fast refresh sweep with touched wallets.
type ActivityRecorder interface {
	MarkActive(walletID uuid.UUID)
}

// BalanceHandler serves balance read and invalidation endpoints.
type BalanceHandler struct {
	balances BalanceReader
	activity ActivityRecorder
	logger   *zap.Logger
}

// NewBalanceHandler creates a balance handler. activity may be nil.
func NewBalanceHandler(balances BalanceReader, activity ActivityRecorder, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{balances: balances, activity: activity, logger: logger}
}

type balanceResponse struct {
	Token            string `json:"token"`
	AmountMinorUnits uint64 `json:"amount_minor_units"`
	DisplayAmount    string `json:"display_amount"`
	Stale            bool   `json:"stale"`
	ObservedAt       string `json:"observed_at,omitempty"`
}

func toBalanceResponse(b balance.Balance) balanceResponse {
	resp := balanceResponse{
		Token:            string(b.Token),
		AmountMinorUnits: b.AmountMinorUnits,
		DisplayAmount:    b.DisplayAmount(),
		Stale:            b.Stale,
	}
	if !b.ObservedAt.IsZero() {
		resp.ObservedAt = b.ObservedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *BalanceHandler) walletID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, apperrors.ValidationError("id", "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *BalanceHandler) markActive(walletID uuid.UUID) {
	if h.activity != nil {
		h.activity.MarkActive(walletID)
	}
}

// GetBalances handles GET /api/v1/wallets/:id/balances.
func (h *BalanceHandler) GetBalances(c *gin.Context) {
	walletID, ok := h.walletID(c)
	if !ok {
		return
	}
	h.markActive(walletID)

	balances, err := h.balances.GetAll(c.Request.Context(), walletID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	responses := make([]balanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, toBalanceResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet_id": walletID.String(),
		"balances":  responses,
	})
}

// GetBalance handles GET /api/v1/wallets/:id/balances/:token.
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	walletID, ok := h.walletID(c)
	if !ok {
		return
	}

	token, err := entities.ParseTokenKind(c.Param("token"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.markActive(walletID)

	b, err := h.balances.Get(c.Request.Context(), walletID, token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBalanceResponse(b))
}

type invalidateRequest struct {
	Tokens []string `json:"tokens"`
}

// InvalidateBalances handles POST /api/v1/wallets/:id/balances/invalidate.
// An empty token list drops every cached token for the wallet.
func (h *BalanceHandler) InvalidateBalances(c *gin.Context) {
	walletID, ok := h.walletID(c)
	if !ok {
		return
	}

	var req invalidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, h.logger, apperrors.ValidationError("body", err.Error()))
			return
		}
	}

	tokens := make([]entities.TokenKind, 0, len(req.Tokens))
	for _, raw := range req.Tokens {
		token, err := entities.ParseTokenKind(raw)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		tokens = append(tokens, token)
	}
	h.markActive(walletID)

	if err := h.balances.Invalidate(c.Request.Context(), walletID, tokens...); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}
