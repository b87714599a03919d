package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			RPCURL:         "https://api.devnet.solana.com",
			RequestTimeout: 5 * time.Second,
		},
		BalanceCache: BalanceCacheConfig{TTL: 30 * time.Second},
		Scheduler: SchedulerConfig{
			FastInterval:   15 * time.Second,
			SlowInterval:   5 * time.Minute,
			ActivityWindow: 10 * time.Minute,
			SweepTimeout:   30 * time.Second,
			SweepWorkers:   8,
		},
		Provisioning: ProvisioningConfig{MaxAttempts: 3},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validate(validConfig()))

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing rpc url",
			mutate:  func(c *Config) { c.Solana.RPCURL = "" },
			wantErr: "solana.rpc_url",
		},
		{
			name:    "non-positive cache ttl",
			mutate:  func(c *Config) { c.BalanceCache.TTL = 0 },
			wantErr: "balance_cache.ttl",
		},
		{
			name:    "fast interval not shorter than slow",
			mutate:  func(c *Config) { c.Scheduler.FastInterval = c.Scheduler.SlowInterval },
			wantErr: "fast_interval",
		},
		{
			name:    "zero sweep workers",
			mutate:  func(c *Config) { c.Scheduler.SweepWorkers = 0 },
			wantErr: "sweep_workers",
		},
		{
			name:    "zero provisioning attempts",
			mutate:  func(c *Config) { c.Provisioning.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
