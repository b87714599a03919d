package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSolanaAddress = "So11111111111111111111111111111111111111112"
	testEVMAddress    = "0x1111111111111111111111111111111111111111"
)

func TestCurve_ValidateAddress(t *testing.T) {
	assert.NoError(t, CurveEd25519.ValidateAddress(testSolanaAddress))
	assert.NoError(t, CurveSecp256k1.ValidateAddress(testEVMAddress))

	// Wrong format for the curve.
	assert.Error(t, CurveEd25519.ValidateAddress(testEVMAddress))
	assert.Error(t, CurveSecp256k1.ValidateAddress(testSolanaAddress))

	// Too short after decoding.
	assert.Error(t, CurveEd25519.ValidateAddress("abc"))
	assert.Error(t, CurveSecp256k1.ValidateAddress("0x1234"))

	// Not valid in the encoding at all.
	assert.Error(t, CurveEd25519.ValidateAddress("0OIl"))
	assert.Error(t, CurveSecp256k1.ValidateAddress("0xzzzz111111111111111111111111111111111111"))
}

func TestSelectPrimaryAddress(t *testing.T) {
	t.Run("ed25519 wins over secp256k1", func(t *testing.T) {
		addr, err := SelectPrimaryAddress(map[Curve]string{
			CurveSecp256k1: testEVMAddress,
			CurveEd25519:   testSolanaAddress,
		})
		require.NoError(t, err)
		assert.Equal(t, testSolanaAddress, addr)
	})

	t.Run("falls back to secp256k1", func(t *testing.T) {
		addr, err := SelectPrimaryAddress(map[Curve]string{
			CurveSecp256k1: testEVMAddress,
		})
		require.NoError(t, err)
		assert.Equal(t, testEVMAddress, addr)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		input := map[Curve]string{
			CurveEd25519:   testSolanaAddress,
			CurveSecp256k1: testEVMAddress,
		}
		first, err := SelectPrimaryAddress(input)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := SelectPrimaryAddress(input)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("empty set fails", func(t *testing.T) {
		_, err := SelectPrimaryAddress(map[Curve]string{})
		assert.Error(t, err)
	})

	t.Run("blank addresses are skipped", func(t *testing.T) {
		addr, err := SelectPrimaryAddress(map[Curve]string{
			CurveEd25519:   "",
			CurveSecp256k1: testEVMAddress,
		})
		require.NoError(t, err)
		assert.Equal(t, testEVMAddress, addr)
	})
}

func validTestWallet() *Wallet {
	now := time.Now()
	return &Wallet{
		ID:             uuid.New(),
		OwnerUserID:    uuid.New(),
		PrimaryAddress: testSolanaAddress,
		AddressesByCurve: map[Curve]string{
			CurveEd25519:   testSolanaAddress,
			CurveSecp256k1: testEVMAddress,
		},
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWallet_Validate(t *testing.T) {
	assert.NoError(t, validTestWallet().Validate())

	w := validTestWallet()
	w.OwnerUserID = uuid.Nil
	assert.Error(t, w.Validate())

	w = validTestWallet()
	w.AddressesByCurve = nil
	assert.Error(t, w.Validate())

	w = validTestWallet()
	w.AddressesByCurve[Curve("p256")] = testSolanaAddress
	assert.Error(t, w.Validate())

	w = validTestWallet()
	w.AddressesByCurve[CurveEd25519] = "not-an-address"
	assert.Error(t, w.Validate())

	w = validTestWallet()
	w.Status = WalletStatus("frozen")
	assert.Error(t, w.Validate())
}

func TestWallet_StatusTransitions(t *testing.T) {
	w := validTestWallet()
	assert.True(t, w.IsActive())

	w.Suspend()
	assert.False(t, w.IsActive())
	assert.Equal(t, WalletStatusSuspended, w.Status)

	w.Activate()
	assert.True(t, w.IsActive())
}

func TestWallet_GetDisplayAddress(t *testing.T) {
	w := validTestWallet()
	assert.Equal(t, "So1111...1112", w.GetDisplayAddress())

	w.PrimaryAddress = "short"
	assert.Equal(t, "short", w.GetDisplayAddress())
}
