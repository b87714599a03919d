package entities

import (
	"math/big"

	"github.com/shopspring/decimal"

	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

// TokenKind identifies a balance-bearing asset. The set is closed: the
// native coin plus the fungible tokens the product supports.
type TokenKind string

const (
	TokenSOL  TokenKind = "SOL"
	TokenUSDC TokenKind = "USDC"
	TokenEURC TokenKind = "EURC"
)

// tokenInfo captures the fixed on-chain parameters of a token kind.
type tokenInfo struct {
	decimals int32
	mint     string
}

var tokenRegistry = map[TokenKind]tokenInfo{
	TokenSOL:  {decimals: 9},
	TokenUSDC: {decimals: 6, mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
	TokenEURC: {decimals: 6, mint: "HzwqbKZw8HxMN6bF2yFZNrht3c2iXXzpKcFu7uBEDKtr"},
}

// tokenOrder fixes the enumeration order used for seeding and fan-out.
var tokenOrder = []TokenKind{TokenSOL, TokenUSDC, TokenEURC}

// SupportedTokens returns all token kinds in registry order.
func SupportedTokens() []TokenKind {
	return append([]TokenKind(nil), tokenOrder...)
}

// IsValid checks if the token kind is supported.
func (t TokenKind) IsValid() bool {
	_, ok := tokenRegistry[t]
	return ok
}

// IsNative reports whether the token is the chain's native coin.
func (t TokenKind) IsNative() bool {
	return t == TokenSOL
}

// Decimals returns the token's fixed decimal exponent.
func (t TokenKind) Decimals() int32 {
	return tokenRegistry[t].decimals
}

// Mint returns the SPL mint address, empty for the native coin.
func (t TokenKind) Mint() string {
	return tokenRegistry[t].mint
}

// DisplayAmount converts minor units to a human decimal string using the
// token's exponent. This is the only place the integer path is allowed to
// be converted; all arithmetic and storage stays in minor units.
func (t TokenKind) DisplayAmount(minorUnits uint64) string {
	units := new(big.Int).SetUint64(minorUnits)
	return decimal.NewFromBigInt(units, -t.Decimals()).String()
}

// ParseTokenKind resolves a token symbol to a TokenKind.
func ParseTokenKind(symbol string) (TokenKind, error) {
	t := TokenKind(symbol)
	if !t.IsValid() {
		return "", apperrors.UnsupportedTokenError(symbol)
	}
	return t, nil
}
