// Package transfer builds unsigned transfer instruction sets for native
// and token transfers. No signing material is handled here; the output
// is handed to an external signer.
package transfer

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/memo"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

// ChainSource is the slice of the chain client the builder depends on.
type ChainSource interface {
	GetNativeBalance(ctx context.Context, address string) (uint64, error)
	GetTokenBalance(ctx context.Context, address, mint string) (uint64, error)
	HasTokenAccount(ctx context.Context, owner, mint string) (bool, error)
	GetRecentBlockhash(ctx context.Context) (string, error)
	EstimateFee(ctx context.Context, message types.Message) (uint64, error)
}

// BuildRequest describes one transfer to assemble instructions for.
type BuildRequest struct {
	Token            entities.TokenKind `json:"token"`
	FromAddress      string             `json:"from_address"`
	ToAddress        string             `json:"to_address"`
	AmountMinorUnits uint64             `json:"amount_minor_units"`
	Memo             string             `json:"memo,omitempty"`
}

// InstructionSet is an assembled, unsigned transfer ready for external
// signing and submission.
type InstructionSet struct {
	Instructions    []types.Instruction `json:"-"`
	FeePayer        string              `json:"fee_payer"`
	RecentBlockhash string              `json:"recent_blockhash"`
	EstimatedFee    uint64              `json:"estimated_fee"`
	// CreatesTokenAccount reports whether the set bootstraps the
	// recipient's associated token account.
	CreatesTokenAccount bool `json:"creates_token_account"`
}

// instructionStrategy assembles the core transfer instructions for one
// token family.
type instructionStrategy interface {
	instructions(ctx context.Context, req BuildRequest) ([]types.Instruction, bool, error)
}

// Builder assembles transfer instruction sets, selecting the native or
// token strategy per request.
type Builder struct {
	chain  ChainSource
	native instructionStrategy
	spl    instructionStrategy
	logger *zap.Logger
}

// NewBuilder creates a transfer instruction builder.
func NewBuilder(chain ChainSource, logger *zap.Logger) *Builder {
	return &Builder{
		chain:  chain,
		native: nativeStrategy{},
		spl:    splStrategy{chain: chain},
		logger: logger,
	}
}

// Build validates the request, checks funds, and assembles the full
// unsigned instruction set: core transfer, token account bootstrap when
// the recipient lacks one, and a trailing memo when requested.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*InstructionSet, error) {
	if err := b.validate(req); err != nil {
		return nil, err
	}

	available, err := b.availableFunds(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.AmountMinorUnits > available {
		return nil, apperrors.InsufficientFundsError(string(req.Token), available, req.AmountMinorUnits)
	}

	strategy := b.spl
	if req.Token.IsNative() {
		strategy = b.native
	}
	instructions, createsATA, err := strategy.instructions(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Memo != "" {
		from := common.PublicKeyFromString(req.FromAddress)
		instructions = append(instructions, memo.BuildMemo(memo.BuildMemoParam{
			SignerPubkeys: []common.PublicKey{from},
			Memo:          []byte(req.Memo),
		}))
	}

	blockhash, err := b.chain.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	set := &InstructionSet{
		Instructions:        instructions,
		FeePayer:            req.FromAddress,
		RecentBlockhash:     blockhash,
		CreatesTokenAccount: createsATA,
	}

	message := types.NewMessage(types.NewMessageParam{
		FeePayer:        common.PublicKeyFromString(req.FromAddress),
		RecentBlockhash: blockhash,
		Instructions:    instructions,
	})
	fee, err := b.chain.EstimateFee(ctx, message)
	if err != nil {
		// The set is still usable without an estimate.
		b.logger.Warn("Fee estimation failed",
			zap.String("token", string(req.Token)),
			zap.Error(err))
	} else {
		set.EstimatedFee = fee
	}

	b.logger.Debug("Transfer instruction set built",
		zap.String("token", string(req.Token)),
		zap.Uint64("amount_minor_units", req.AmountMinorUnits),
		zap.Int("instructions", len(instructions)),
		zap.Bool("creates_token_account", createsATA))
	return set, nil
}

func (b *Builder) validate(req BuildRequest) error {
	if !req.Token.IsValid() {
		return apperrors.UnsupportedTokenError(string(req.Token))
	}
	if req.AmountMinorUnits == 0 {
		return apperrors.ValidationError("amount_minor_units", "must be greater than zero")
	}
	if err := entities.CurveEd25519.ValidateAddress(req.FromAddress); err != nil {
		return apperrors.ValidationError("from_address", err.Error())
	}
	if err := entities.CurveEd25519.ValidateAddress(req.ToAddress); err != nil {
		return apperrors.ValidationError("to_address", err.Error())
	}
	if req.FromAddress == req.ToAddress {
		return apperrors.ValidationError("to_address", "must differ from from_address")
	}
	return nil
}

func (b *Builder) availableFunds(ctx context.Context, req BuildRequest) (uint64, error) {
	if req.Token.IsNative() {
		return b.chain.GetNativeBalance(ctx, req.FromAddress)
	}
	return b.chain.GetTokenBalance(ctx, req.FromAddress, req.Token.Mint())
}

// nativeStrategy produces a single system transfer in lamports.
type nativeStrategy struct{}

func (nativeStrategy) instructions(_ context.Context, req BuildRequest) ([]types.Instruction, bool, error) {
	return []types.Instruction{
		system.Transfer(system.TransferParam{
			From:   common.PublicKeyFromString(req.FromAddress),
			To:     common.PublicKeyFromString(req.ToAddress),
			Amount: req.AmountMinorUnits,
		}),
	}, false, nil
}

// splStrategy produces a checked token transfer between associated token
// accounts, bootstrapping the recipient's account when it is missing.
type splStrategy struct {
	chain ChainSource
}

func (s splStrategy) instructions(ctx context.Context, req BuildRequest) ([]types.Instruction, bool, error) {
	mint := common.PublicKeyFromString(req.Token.Mint())
	fromOwner := common.PublicKeyFromString(req.FromAddress)
	toOwner := common.PublicKeyFromString(req.ToAddress)

	fromATA, _, err := common.FindAssociatedTokenAddress(fromOwner, mint)
	if err != nil {
		return nil, false, fmt.Errorf("failed to derive sender token account: %w", err)
	}
	toATA, _, err := common.FindAssociatedTokenAddress(toOwner, mint)
	if err != nil {
		return nil, false, fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	hasAccount, err := s.chain.HasTokenAccount(ctx, req.ToAddress, req.Token.Mint())
	if err != nil {
		return nil, false, err
	}

	var instructions []types.Instruction
	if !hasAccount {
		instructions = append(instructions, associated_token_account.Create(
			associated_token_account.CreateParam{
				Funder:                 fromOwner,
				Owner:                  toOwner,
				Mint:                   mint,
				AssociatedTokenAccount: toATA,
			}))
	}

	instructions = append(instructions, token.TransferChecked(token.TransferCheckedParam{
		From:     fromATA,
		To:       toATA,
		Mint:     mint,
		Auth:     fromOwner,
		Signers:  []common.PublicKey{},
		Amount:   req.AmountMinorUnits,
		Decimals: uint8(req.Token.Decimals()),
	}))
	return instructions, !hasAccount, nil
}
