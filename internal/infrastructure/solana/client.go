// Package solana implements the chain source against Solana RPC. Every
// call is time-bounded and routed through a circuit breaker; callers
// treat any failure here as transient chain unavailability.
package solana

import (
	"context"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/config"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
)

// Client wraps the Solana RPC client with timeouts and a breaker.
type Client struct {
	rpc     *client.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient creates a chain source client for the configured RPC endpoint.
func NewClient(cfg config.SolanaConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "solana-rpc",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		rpc:     client.NewClient(cfg.RPCURL),
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// call runs one RPC operation under the per-call timeout and the breaker.
func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx, span := otel.Tracer("solana.client").Start(ctx, operation)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.operation", operation))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})
	if err != nil {
		span.RecordError(err)
		c.metrics.ChainErrors.WithLabelValues(operation).Inc()
		c.logger.Warn("Chain source call failed",
			zap.String("operation", operation),
			zap.Error(err))
		return nil, apperrors.ChainUnavailableError(operation, err)
	}
	return result, nil
}

// GetNativeBalance returns the SOL balance of an address in lamports.
func (c *Client) GetNativeBalance(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "get_native_balance", func(ctx context.Context) (interface{}, error) {
		return c.rpc.GetBalance(ctx, address)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// GetTokenBalance returns an address's balance for an SPL mint, in the
// token's minor units. An address that has never held the token reads
// as zero; that is an answer, not an error.
func (c *Client) GetTokenBalance(ctx context.Context, address, mint string) (uint64, error) {
	owner := common.PublicKeyFromString(address)
	mintKey := common.PublicKeyFromString(mint)

	ata, _, err := common.FindAssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return 0, apperrors.ChainUnavailableError("derive_token_account", err)
	}

	result, err := c.call(ctx, "get_token_balance", func(ctx context.Context) (interface{}, error) {
		info, err := c.rpc.GetAccountInfo(ctx, ata.ToBase58())
		if err != nil {
			return nil, err
		}
		if info.Owner == (common.PublicKey{}) {
			// Token account does not exist yet.
			return uint64(0), nil
		}
		balance, err := c.rpc.GetTokenAccountBalance(ctx, ata.ToBase58())
		if err != nil {
			return nil, err
		}
		return balance.Amount, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// HasTokenAccount reports whether the owner's associated token account
// for the mint exists on chain.
func (c *Client) HasTokenAccount(ctx context.Context, owner, mint string) (bool, error) {
	ownerKey := common.PublicKeyFromString(owner)
	mintKey := common.PublicKeyFromString(mint)

	ata, _, err := common.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return false, apperrors.ChainUnavailableError("derive_token_account", err)
	}

	result, err := c.call(ctx, "has_token_account", func(ctx context.Context) (interface{}, error) {
		info, err := c.rpc.GetAccountInfo(ctx, ata.ToBase58())
		if err != nil {
			return nil, err
		}
		return info.Owner != (common.PublicKey{}), nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// GetRecentBlockhash fetches the latest blockhash for message assembly.
func (c *Client) GetRecentBlockhash(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "get_recent_blockhash", func(ctx context.Context) (interface{}, error) {
		res, err := c.rpc.GetLatestBlockhash(ctx)
		if err != nil {
			return nil, err
		}
		return res.Blockhash, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// EstimateFee returns the network fee for a compiled message, in lamports.
func (c *Client) EstimateFee(ctx context.Context, message types.Message) (uint64, error) {
	result, err := c.call(ctx, "estimate_fee", func(ctx context.Context) (interface{}, error) {
		fee, err := c.rpc.GetFeeForMessage(ctx, message)
		if err != nil {
			return nil, err
		}
		if fee == nil {
			return uint64(0), nil
		}
		return *fee, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}
