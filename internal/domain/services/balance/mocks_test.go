package balance

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

const mockAddress = "So11111111111111111111111111111111111111112"

type mockChain struct {
	mu        sync.Mutex
	native    map[string]uint64
	tokens    map[string]uint64
	nativeErr error
	tokenErr  map[string]error
	calls     int
}

func newMockChain() *mockChain {
	return &mockChain{
		native:   make(map[string]uint64),
		tokens:   make(map[string]uint64),
		tokenErr: make(map[string]error),
	}
}

func tokenKey(address, mint string) string {
	return address + "|" + mint
}

func (m *mockChain) GetNativeBalance(_ context.Context, address string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.nativeErr != nil {
		return 0, m.nativeErr
	}
	return m.native[address], nil
}

func (m *mockChain) GetTokenBalance(_ context.Context, address, mint string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.tokenErr[mint]; err != nil {
		return 0, err
	}
	return m.tokens[tokenKey(address, mint)], nil
}

func (m *mockChain) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*entities.Wallet
	active  []*entities.Wallet
	listErr error
}

func newMockWalletStore() *mockWalletStore {
	return &mockWalletStore{wallets: make(map[uuid.UUID]*entities.Wallet)}
}

func (m *mockWalletStore) add(w *entities.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.ID] = w
	m.active = append(m.active, w)
}

func (m *mockWalletStore) GetByID(_ context.Context, id uuid.UUID) (*entities.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return nil, apperrors.NotFoundError("wallet")
	}
	return w, nil
}

func (m *mockWalletStore) ListActive(_ context.Context) ([]*entities.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]*entities.Wallet(nil), m.active...), nil
}

type mockBalanceStore struct {
	mu        sync.Mutex
	records   map[string]*entities.BalanceRecord
	getErr    error
	upsertErr error
	upserts   int
}

func newMockBalanceStore() *mockBalanceStore {
	return &mockBalanceStore{records: make(map[string]*entities.BalanceRecord)}
}

func recordKey(walletID uuid.UUID, token entities.TokenKind) string {
	return fmt.Sprintf("%s|%s", walletID, token)
}

func (m *mockBalanceStore) seed(record *entities.BalanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey(record.WalletID, record.Token)] = record
}

func (m *mockBalanceStore) Get(_ context.Context, walletID uuid.UUID, token entities.TokenKind) (*entities.BalanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[recordKey(walletID, token)]
	if !ok {
		return nil, apperrors.NotFoundError("balance")
	}
	copied := *r
	return &copied, nil
}

func (m *mockBalanceStore) UpsertSnapshot(_ context.Context, record *entities.BalanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *record
	m.records[recordKey(record.WalletID, record.Token)] = &copied
	return nil
}

func (m *mockBalanceStore) stored(walletID uuid.UUID, token entities.TokenKind) *entities.BalanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[recordKey(walletID, token)]
}

func newTestWallet() *entities.Wallet {
	return &entities.Wallet{
		ID:             uuid.New(),
		OwnerUserID:    uuid.New(),
		PrimaryAddress: mockAddress,
		AddressesByCurve: map[entities.Curve]string{
			entities.CurveEd25519: mockAddress,
		},
		Status: entities.WalletStatusActive,
	}
}
