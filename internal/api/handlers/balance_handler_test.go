package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/balance"
)

type stubBalanceReader struct {
	balances map[entities.TokenKind]balance.Balance
	err      error
}

func (s *stubBalanceReader) Get(_ context.Context, walletID uuid.UUID, token entities.TokenKind) (balance.Balance, error) {
	if s.err != nil {
		return balance.Balance{}, s.err
	}
	b := s.balances[token]
	b.WalletID = walletID
	b.Token = token
	return b, nil
}

func (s *stubBalanceReader) GetAll(ctx context.Context, walletID uuid.UUID) ([]balance.Balance, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]balance.Balance, 0, len(entities.SupportedTokens()))
	for _, token := range entities.SupportedTokens() {
		b, _ := s.Get(ctx, walletID, token)
		out = append(out, b)
	}
	return out, nil
}

func (s *stubBalanceReader) Invalidate(_ context.Context, _ uuid.UUID, _ ...entities.TokenKind) error {
	return s.err
}

func newBalanceRouter(reader *stubBalanceReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBalanceHandler(reader, nil, zap.NewNop())
	router := gin.New()
	router.GET("/api/v1/wallets/:id/balances", h.GetBalances)
	router.GET("/api/v1/wallets/:id/balances/:token", h.GetBalance)
	return router
}

func TestBalanceHandler_GetBalance(t *testing.T) {
	reader := &stubBalanceReader{balances: map[entities.TokenKind]balance.Balance{
		entities.TokenUSDC: {AmountMinorUnits: 5_250_000},
	}}
	router := newBalanceRouter(reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/balances/USDC", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display_amount":"5.25"`)
	assert.Contains(t, w.Body.String(), `"stale":false`)
}

func TestBalanceHandler_GetBalances(t *testing.T) {
	reader := &stubBalanceReader{balances: map[entities.TokenKind]balance.Balance{}}
	router := newBalanceRouter(reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/balances", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SOL"`)
	assert.Contains(t, w.Body.String(), `"USDC"`)
	assert.Contains(t, w.Body.String(), `"EURC"`)
}

func TestBalanceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown wallet", apperrors.NotFoundError("wallet"), http.StatusNotFound},
		{"store down", apperrors.StoreUnavailableError("select", assert.AnError), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBalanceRouter(&stubBalanceReader{err: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/balances/SOL", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBalanceHandler_RejectsBadInput(t *testing.T) {
	router := newBalanceRouter(&stubBalanceReader{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/not-a-uuid/balances/SOL", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+uuid.NewString()+"/balances/DOGE", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNSUPPORTED_TOKEN")
}
