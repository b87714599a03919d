package handlers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/transfer"
)

// TransferBuilder is the instruction building surface the handler
// depends on.
type TransferBuilder interface {
	Build(ctx context.Context, req transfer.BuildRequest) (*transfer.InstructionSet, error)
}

// TransferHandler serves the unsigned transfer build endpoint.
type TransferHandler struct {
	builder TransferBuilder
	logger  *zap.Logger
}

// NewTransferHandler creates a transfer handler.
func NewTransferHandler(builder TransferBuilder, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{builder: builder, logger: logger}
}

type buildTransferRequest struct {
	Token            string `json:"token" binding:"required"`
	FromAddress      string `json:"from_address" binding:"required"`
	ToAddress        string `json:"to_address" binding:"required"`
	AmountMinorUnits uint64 `json:"amount_minor_units" binding:"required"`
	Memo             string `json:"memo"`
}

type accountMetaResponse struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type instructionResponse struct {
	ProgramID  string                `json:"program_id"`
	Accounts   []accountMetaResponse `json:"accounts"`
	DataBase64 string                `json:"data_base64"`
}

type buildTransferResponse struct {
	FeePayer            string                `json:"fee_payer"`
	RecentBlockhash     string                `json:"recent_blockhash"`
	EstimatedFee        uint64                `json:"estimated_fee"`
	CreatesTokenAccount bool                  `json:"creates_token_account"`
	Instructions        []instructionResponse `json:"instructions"`
}

func toInstructionResponse(in types.Instruction) instructionResponse {
	accounts := make([]accountMetaResponse, 0, len(in.Accounts))
	for _, acc := range in.Accounts {
		accounts = append(accounts, accountMetaResponse{
			Pubkey:     acc.PubKey.ToBase58(),
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}
	return instructionResponse{
		ProgramID:  in.ProgramID.ToBase58(),
		Accounts:   accounts,
		DataBase64: base64.StdEncoding.EncodeToString(in.Data),
	}
}

// BuildTransfer handles POST /api/v1/transfers/build. The response is an
// unsigned instruction set; no key material is involved.
func (h *TransferHandler) BuildTransfer(c *gin.Context) {
	var req buildTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperrors.ValidationError("body", err.Error()))
		return
	}

	token, err := entities.ParseTokenKind(req.Token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	set, err := h.builder.Build(c.Request.Context(), transfer.BuildRequest{
		Token:            token,
		FromAddress:      req.FromAddress,
		ToAddress:        req.ToAddress,
		AmountMinorUnits: req.AmountMinorUnits,
		Memo:             req.Memo,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	instructions := make([]instructionResponse, 0, len(set.Instructions))
	for _, in := range set.Instructions {
		instructions = append(instructions, toInstructionResponse(in))
	}
	c.JSON(http.StatusOK, buildTransferResponse{
		FeePayer:            set.FeePayer,
		RecentBlockhash:     set.RecentBlockhash,
		EstimatedFee:        set.EstimatedFee,
		CreatesTokenAccount: set.CreatesTokenAccount,
		Instructions:        instructions,
	})
}
