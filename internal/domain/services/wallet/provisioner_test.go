package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/retry"
)

const (
	testSolanaAddress = "So11111111111111111111111111111111111111112"
	testEVMAddress    = "0x1111111111111111111111111111111111111111"
)

type mockStore struct {
	mu          sync.Mutex
	byOwner     map[uuid.UUID]*entities.Wallet
	byAddress   map[string]*entities.Wallet
	createErrs  []error
	createCalls int
	seededWith  []entities.TokenKind
}

func newMockStore() *mockStore {
	return &mockStore{
		byOwner:   make(map[uuid.UUID]*entities.Wallet),
		byAddress: make(map[string]*entities.Wallet),
	}
}

func (m *mockStore) add(w *entities.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byOwner[w.OwnerUserID] = w
	m.byAddress[w.PrimaryAddress] = w
}

func (m *mockStore) GetByOwner(_ context.Context, ownerUserID uuid.UUID) (*entities.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.byOwner[ownerUserID]; ok {
		return w, nil
	}
	return nil, apperrors.NotFoundError("wallet")
}

func (m *mockStore) GetByPrimaryAddress(_ context.Context, address string) (*entities.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.byAddress[address]; ok {
		return w, nil
	}
	return nil, apperrors.NotFoundError("wallet")
}

func (m *mockStore) CreateWithBalances(_ context.Context, wallet *entities.Wallet, tokens []entities.TokenKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.createCalls
	m.createCalls++
	if call < len(m.createErrs) && m.createErrs[call] != nil {
		return m.createErrs[call]
	}
	m.byOwner[wallet.OwnerUserID] = wallet
	m.byAddress[wallet.PrimaryAddress] = wallet
	m.seededWith = tokens
	return nil
}

type mockActivity struct {
	mu     sync.Mutex
	marked []uuid.UUID
}

func (m *mockActivity) MarkActive(walletID uuid.UUID) {
	m.mu.Lock()
	m.marked = append(m.marked, walletID)
	m.mu.Unlock()
}

func testAddresses() map[entities.Curve]string {
	return map[entities.Curve]string{
		entities.CurveEd25519:   testSolanaAddress,
		entities.CurveSecp256k1: testEVMAddress,
	}
}

func newTestProvisioner(store *mockStore, activity ActivityRecorder) *Provisioner {
	executor := retry.NewExecutor(retry.Policy{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		RetryableFunc: apperrors.ShouldRetry,
	}, zap.NewNop())
	return NewProvisioner(store, executor, activity, metrics.New(), zap.NewNop())
}

func TestProvisioner_CreatesWalletWithZeroBalances(t *testing.T) {
	store := newMockStore()
	activity := &mockActivity{}
	p := newTestProvisioner(store, activity)

	ownerID := uuid.New()
	created, err := p.Provision(context.Background(), ownerID, testAddresses())
	require.NoError(t, err)

	assert.Equal(t, ownerID, created.OwnerUserID)
	assert.Equal(t, testSolanaAddress, created.PrimaryAddress, "ed25519 address becomes primary")
	assert.Equal(t, entities.WalletStatusActive, created.Status)
	assert.Equal(t, entities.SupportedTokens(), store.seededWith, "every token gets a zero balance row")
	assert.Equal(t, []uuid.UUID{created.ID}, activity.marked)

	snap := p.Metrics()
	assert.Equal(t, int64(1), snap.Attempts)
	assert.Equal(t, int64(1), snap.Successes)
	assert.Zero(t, snap.Retries)
}

func TestProvisioner_IsIdempotentPerOwner(t *testing.T) {
	store := newMockStore()
	p := newTestProvisioner(store, nil)

	ownerID := uuid.New()
	first, err := p.Provision(context.Background(), ownerID, testAddresses())
	require.NoError(t, err)

	second, err := p.Provision(context.Background(), ownerID, testAddresses())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.createCalls, "no second transaction for an already provisioned owner")
}

func TestProvisioner_RejectsAddressOwnedByAnotherUser(t *testing.T) {
	store := newMockStore()
	other := &entities.Wallet{
		ID:             uuid.New(),
		OwnerUserID:    uuid.New(),
		PrimaryAddress: testSolanaAddress,
		AddressesByCurve: map[entities.Curve]string{
			entities.CurveEd25519: testSolanaAddress,
		},
		Status: entities.WalletStatusActive,
	}
	store.add(other)
	p := newTestProvisioner(store, nil)

	_, err := p.Provision(context.Background(), uuid.New(), testAddresses())
	assert.True(t, apperrors.IsConflict(err))
	assert.Zero(t, store.createCalls)
}

func TestProvisioner_RetriesTransientStoreFailures(t *testing.T) {
	store := newMockStore()
	store.createErrs = []error{
		apperrors.StoreUnavailableError("insert wallet", errors.New("connection reset")),
		apperrors.StoreUnavailableError("insert wallet", errors.New("connection reset")),
	}
	p := newTestProvisioner(store, nil)

	created, err := p.Provision(context.Background(), uuid.New(), testAddresses())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 3, store.createCalls)

	snap := p.Metrics()
	assert.Equal(t, int64(3), snap.Attempts)
	assert.Equal(t, int64(2), snap.Retries)
	assert.Equal(t, int64(1), snap.Successes)
	assert.Zero(t, snap.Failures)
}

func TestProvisioner_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newMockStore()
	transient := apperrors.StoreUnavailableError("insert wallet", errors.New("connection reset"))
	store.createErrs = []error{transient, transient, transient}
	p := newTestProvisioner(store, nil)

	_, err := p.Provision(context.Background(), uuid.New(), testAddresses())
	require.Error(t, err)
	assert.True(t, apperrors.IsProvisioningFailed(err))
	assert.Equal(t, 3, store.createCalls)

	snap := p.Metrics()
	assert.Equal(t, int64(1), snap.Failures)
	assert.Zero(t, snap.Successes)
}

func TestProvisioner_ConflictIsNotRetried(t *testing.T) {
	store := newMockStore()
	store.createErrs = []error{apperrors.ConflictError("wallet", "duplicate primary address")}
	p := newTestProvisioner(store, nil)

	_, err := p.Provision(context.Background(), uuid.New(), testAddresses())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, store.createCalls, "conflicts must not be retried")
}

func TestProvisioner_ValidationRunsBeforeUniquenessCheck(t *testing.T) {
	store := newMockStore()
	other := &entities.Wallet{
		ID:             uuid.New(),
		OwnerUserID:    uuid.New(),
		PrimaryAddress: testSolanaAddress,
		AddressesByCurve: map[entities.Curve]string{
			entities.CurveEd25519: testSolanaAddress,
		},
		Status: entities.WalletStatusActive,
	}
	store.add(other)
	p := newTestProvisioner(store, nil)

	// Primary is claimed by another owner AND the secondary address is
	// malformed: the malformed address wins, so the caller sees a
	// validation error rather than a conflict.
	_, err := p.Provision(context.Background(), uuid.New(), map[entities.Curve]string{
		entities.CurveEd25519:   testSolanaAddress,
		entities.CurveSecp256k1: "not-a-hex-address",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, apperrors.IsConflict(err))
	assert.Zero(t, store.createCalls)
}

func TestProvisioner_ValidatesAddresses(t *testing.T) {
	p := newTestProvisioner(newMockStore(), nil)

	_, err := p.Provision(context.Background(), uuid.New(), map[entities.Curve]string{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = p.Provision(context.Background(), uuid.New(), map[entities.Curve]string{
		entities.CurveEd25519: "not-base58-!!",
	})
	assert.True(t, apperrors.IsValidation(err))
}
