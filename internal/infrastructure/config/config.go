package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment  string             `mapstructure:"environment"`
	LogLevel     string             `mapstructure:"log_level"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Solana       SolanaConfig       `mapstructure:"solana"`
	BalanceCache BalanceCacheConfig `mapstructure:"balance_cache"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SolanaConfig configures the chain source client.
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Commitment     string        `mapstructure:"commitment"`
}

// BalanceCacheConfig configures the read-through balance cache.
type BalanceCacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SchedulerConfig configures the dual-cadence refresh scheduler.
type SchedulerConfig struct {
	FastInterval   time.Duration `mapstructure:"fast_interval"`
	SlowInterval   time.Duration `mapstructure:"slow_interval"`
	ActivityWindow time.Duration `mapstructure:"activity_window"`
	SweepTimeout   time.Duration `mapstructure:"sweep_timeout"`
	SweepWorkers   int           `mapstructure:"sweep_workers"`
}

// ProvisioningConfig configures the wallet provisioning retry loop.
type ProvisioningConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
}

// Load reads configuration from config file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	// Read from config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build database URL if not provided
	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "rampa_cash")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)
	viper.SetDefault("database.migrations_path", "migrations")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.request_timeout", 5*time.Second)
	viper.SetDefault("solana.commitment", "confirmed")

	viper.SetDefault("balance_cache.ttl", 30*time.Second)

	viper.SetDefault("scheduler.fast_interval", 15*time.Second)
	viper.SetDefault("scheduler.slow_interval", 5*time.Minute)
	viper.SetDefault("scheduler.activity_window", 10*time.Minute)
	viper.SetDefault("scheduler.sweep_timeout", 30*time.Second)
	viper.SetDefault("scheduler.sweep_workers", 8)

	viper.SetDefault("provisioning.max_attempts", 3)
	viper.SetDefault("provisioning.base_backoff", 200*time.Millisecond)
	viper.SetDefault("provisioning.max_backoff", 5*time.Second)
}

func validate(config *Config) error {
	if config.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if config.BalanceCache.TTL <= 0 {
		return fmt.Errorf("balance_cache.ttl must be positive")
	}
	if config.Scheduler.FastInterval <= 0 || config.Scheduler.SlowInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	if config.Scheduler.FastInterval >= config.Scheduler.SlowInterval {
		return fmt.Errorf("scheduler.fast_interval must be shorter than scheduler.slow_interval")
	}
	if config.Scheduler.SweepWorkers < 1 {
		return fmt.Errorf("scheduler.sweep_workers must be at least 1")
	}
	if config.Provisioning.MaxAttempts < 1 {
		return fmt.Errorf("provisioning.max_attempts must be at least 1")
	}
	return nil
}
