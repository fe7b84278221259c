package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blocpool/payoutd/internal/coinutil"
)

const (
	defaultAppName       = "PayoutD"
	defaultAppEnv        = "development"
	defaultPort          = "9090"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second

	defaultCoinUnits     = int64(1_000_000_000_000)
	defaultPayoutEvery   = 30 * time.Minute
	defaultRetryInterval = 5 * time.Minute

	defaultMinPayout    = "0.3"
	defaultThreshold    = "0.3"
	defaultBaseFee      = "0.02"
	defaultFeeSlewEnd   = "1"
	defaultExchangeMin  = "5"
	defaultFeeReserve   = "0.1"
	defaultDenomination = "0.01"

	defaultMaxBulkDestinations = 10
	defaultMixin               = 5
	defaultTransferFee         = int64(100000000)
	defaultIntegratedAddrLen   = 106
	defaultProofURLBase        = "https://xmrchain.net/prove"

	// maxPayoutInterval caps the scheduler period; larger values overflow
	// common timer backends and are always a misconfiguration.
	maxPayoutInterval = 35791 * time.Minute
)

// Config captures runtime configuration loaded from environment variables.
// All monetary fields are integer minor units; the coin-denominated ones are
// parsed from whole-coin decimal strings using CoinUnits.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	WalletRPCURL     string
	WalletRPCTimeout time.Duration
	WalletAuthFile   string

	CoinUnits     int64
	PayoutEvery   time.Duration
	RetryInterval time.Duration

	MinPayout        int64
	DefaultThreshold int64
	BaseFee          int64
	FeeSlewEnd       int64
	ExchangeMin      int64
	FeeAddress       string
	FeeReserve       int64
	Denomination     int64

	MaxBulkDestinations int
	Mixin               int
	Priority            int
	TransferFee         int64
	IntegratedAddrLen   int

	AdminEmail   string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	ProofURLBase string

	TelegramBotKey string
	TelegramChatID string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,

		WalletRPCURL:   os.Getenv("WALLET_RPC_URL"),
		WalletAuthFile: os.Getenv("WALLET_AUTH_FILE"),

		FeeAddress: os.Getenv("FEE_ADDRESS"),

		ProofURLBase: getEnv("PROOF_URL_BASE", defaultProofURLBase),

		AdminEmail:   os.Getenv("ADMIN_EMAIL"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "25"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),

		TelegramBotKey: os.Getenv("TELEGRAM_BOT_KEY"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.WalletRPCTimeout, err = durationEnv("WALLET_RPC_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.PayoutEvery, err = durationEnv("PAYOUT_INTERVAL", defaultPayoutEvery); err != nil {
		return Config{}, err
	}
	if cfg.RetryInterval, err = durationEnv("PAYOUT_RETRY_INTERVAL", defaultRetryInterval); err != nil {
		return Config{}, err
	}

	if cfg.CoinUnits, err = intEnv("COIN_UNITS", defaultCoinUnits); err != nil {
		return Config{}, err
	}
	if cfg.CoinUnits <= 0 {
		return Config{}, fmt.Errorf("COIN_UNITS must be positive")
	}

	coinFields := []struct {
		dst      *int64
		env      string
		fallback string
	}{
		{&cfg.MinPayout, "MIN_PAYOUT", defaultMinPayout},
		{&cfg.DefaultThreshold, "DEFAULT_PAYOUT_THRESHOLD", defaultThreshold},
		{&cfg.BaseFee, "FEE_SLEW_AMOUNT", defaultBaseFee},
		{&cfg.FeeSlewEnd, "FEE_SLEW_END", defaultFeeSlewEnd},
		{&cfg.ExchangeMin, "EXCHANGE_MIN", defaultExchangeMin},
		{&cfg.FeeReserve, "FEE_RESERVE", defaultFeeReserve},
		{&cfg.Denomination, "PAYOUT_DENOMINATION", defaultDenomination},
	}
	for _, f := range coinFields {
		if *f.dst, err = coinEnv(f.env, f.fallback, cfg.CoinUnits); err != nil {
			return Config{}, err
		}
	}

	if cfg.TransferFee, err = intEnv("TRANSFER_FEE", defaultTransferFee); err != nil {
		return Config{}, err
	}

	var n int64
	if n, err = intEnv("MAX_BULK_DESTINATIONS", defaultMaxBulkDestinations); err != nil {
		return Config{}, err
	}
	cfg.MaxBulkDestinations = int(n)
	if n, err = intEnv("MIXIN", defaultMixin); err != nil {
		return Config{}, err
	}
	cfg.Mixin = int(n)
	if n, err = intEnv("TRANSFER_PRIORITY", 0); err != nil {
		return Config{}, err
	}
	cfg.Priority = int(n)
	if n, err = intEnv("INTEGRATED_ADDRESS_LENGTH", defaultIntegratedAddrLen); err != nil {
		return Config{}, err
	}
	cfg.IntegratedAddrLen = int(n)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.WalletRPCURL == "" {
		return Config{}, fmt.Errorf("WALLET_RPC_URL must be set")
	}
	if cfg.PayoutEvery <= 0 || cfg.PayoutEvery > maxPayoutInterval {
		return Config{}, fmt.Errorf("PAYOUT_INTERVAL must be between 0 and %s", maxPayoutInterval)
	}
	if cfg.Denomination <= 0 {
		return Config{}, fmt.Errorf("PAYOUT_DENOMINATION must be positive")
	}
	if cfg.MaxBulkDestinations <= 0 {
		return Config{}, fmt.Errorf("MAX_BULK_DESTINATIONS must be positive")
	}
	if cfg.FeeSlewEnd <= cfg.MinPayout {
		return Config{}, fmt.Errorf("FEE_SLEW_END must be greater than MIN_PAYOUT")
	}

	return cfg, nil
}

// Address returns the ops listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func coinEnv(key, fallback string, units int64) (int64, error) {
	amount, err := coinutil.ParseCoin(getEnv(key, fallback), units)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return amount, nil
}
