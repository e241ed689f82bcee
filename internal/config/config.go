package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Solana   SolanaConfig
	Redis    RedisConfig
	Email    EmailConfig
	KYC      KYCConfig
	Pricing  PricingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	RateLimitPerSec int
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env              string
	JWTSecret        string
	CronSecret       string
	FrontendURL      string
	LoginMessage     string
	MonthlyCredits   int
	FeaturedSlots    int
	EnableScheduler  bool
	UsernameAttempts int
}

// SolanaConfig holds Solana RPC settings
type SolanaConfig struct {
	Network        string
	RPCURL         string
	TokenMints     map[string]string
	VerifyPayments bool
}

// RedisConfig holds cache settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EmailConfig holds Resend settings. An empty APIKey disables delivery.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	ReplyTo      string
	BatchSize    int
	BatchDelay   time.Duration
}

// KYCConfig holds SumSub webhook settings
type KYCConfig struct {
	WebhookSecret string
}

// PricingConfig holds token price API settings
type PricingConfig struct {
	CoinGeckoURL     string
	CryptoCompareURL string
	CacheTTL         time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "earn"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			AllowedOrigins:  getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerSec: getInt("RATE_LIMIT_PER_SEC", 20),
			RateLimitBurst:  getInt("RATE_LIMIT_BURST", 40),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		App: AppConfig{
			Env:              getEnv("APP_ENV", "development"),
			JWTSecret:        getEnv("JWT_SECRET", ""),
			CronSecret:       getEnv("CRON_SECRET", ""),
			FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
			LoginMessage:     getEnv("LOGIN_MESSAGE", "Sign this message to sign in to Superteam Earn"),
			MonthlyCredits:   getInt("MONTHLY_CREDITS", 3),
			FeaturedSlots:    getInt("FEATURED_SLOTS", 4),
			EnableScheduler:  getBool("ENABLE_SCHEDULER", true),
			UsernameAttempts: getInt("USERNAME_ATTEMPTS", 10),
		},
		Solana: SolanaConfig{
			Network:        getEnv("SOLANA_NETWORK", "devnet"),
			RPCURL:         getEnv("SOLANA_RPC_URL", ""),
			TokenMints:     getMints("TOKEN_MINTS", getEnv("USDC_MINT", "")),
			VerifyPayments: getBool("VERIFY_PAYMENTS", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "Superteam Earn <notifications@earn.superteam.fun>"),
			ReplyTo:      getEnv("EMAIL_REPLY_TO", ""),
			BatchSize:    getInt("EMAIL_BATCH_SIZE", 10),
			BatchDelay:   getDuration("EMAIL_BATCH_DELAY", time.Second),
		},
		KYC: KYCConfig{
			WebhookSecret: getEnv("SUMSUB_WEBHOOK_SECRET", ""),
		},
		Pricing: PricingConfig{
			CoinGeckoURL:     getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
			CryptoCompareURL: getEnv("CRYPTOCOMPARE_URL", "https://min-api.cryptocompare.com"),
			CacheTTL:         getDuration("PRICE_CACHE_TTL", 5*time.Minute),
		},
	}

	if frontend := config.App.FrontendURL; frontend != "" && !contains(config.Server.AllowedOrigins, frontend) {
		config.Server.AllowedOrigins = append(config.Server.AllowedOrigins, frontend)
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.App.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	if config.App.MonthlyCredits < 0 {
		return nil, fmt.Errorf("MONTHLY_CREDITS must not be negative")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// defaultTokenMints are the mainnet SPL mints of the reward tokens listings
// may pay in.
var defaultTokenMints = map[string]string{
	"USDC":  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT":  "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"PYUSD": "2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo",
	"BONK":  "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"JUP":   "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
	"JTO":   "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL",
	"PYTH":  "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3",
	"WIF":   "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
	"HNT":   "hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux",
}

// getMints reads SYMBOL:mint pairs on top of the default mint table.
// usdcMint, when set, overrides the USDC entry.
func getMints(key, usdcMint string) map[string]string {
	mints := make(map[string]string, len(defaultTokenMints))
	for symbol, mint := range defaultTokenMints {
		mints[symbol] = mint
	}
	if usdcMint != "" {
		mints["USDC"] = usdcMint
	}
	for _, pair := range getList(key, nil) {
		symbol, mint, ok := strings.Cut(pair, ":")
		symbol, mint = strings.ToUpper(strings.TrimSpace(symbol)), strings.TrimSpace(mint)
		if !ok || symbol == "" || mint == "" {
			continue
		}
		mints[symbol] = mint
	}
	return mints
}
