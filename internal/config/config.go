package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Payment   PaymentConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	FrontendURL           string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	EventTTLHours int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// PaymentConfig configures the listing fee checkout.
type PaymentConfig struct {
	StripeSecretKey string
	WebhookSecret   string
	ListingFeeCents int64
	Currency        string
	ProductName     string
	SuccessURL      string
	CancelURL       string
}

// StorageConfig configures the listing image bucket.
type StorageConfig struct {
	SupabaseURL   string
	SupabaseKey   string
	Bucket        string
	MaxImageBytes int
	MaxImages     int
}

// RateLimitConfig bounds write endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// SearchConfig holds room query defaults.
type SearchConfig struct {
	RadiusMeters float64
	DefaultLimit int
	MaxLimit     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	listingFee, err := strconv.ParseInt(getEnv("LISTING_FEE_CENTS", "3000"), 10, 64)
	if err != nil || listingFee <= 0 {
		return nil, fmt.Errorf("invalid LISTING_FEE_CENTS: %q", os.Getenv("LISTING_FEE_CENTS"))
	}

	radius, err := strconv.ParseFloat(getEnv("SEARCH_RADIUS_METERS", "10000"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_RADIUS_METERS: %w", err)
	}

	frontend := strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "roommatebase"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			FrontendURL:           frontend,
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 30*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Enabled:       getEnvAsBool("REDIS_ENABLED", false),
			Addr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			EventTTLHours: getEnvAsInt("REDIS_EVENT_TTL_HOURS", 72),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Payment: PaymentConfig{
			StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
			ListingFeeCents: listingFee,
			Currency:        strings.ToLower(getEnv("LISTING_FEE_CURRENCY", "usd")),
			ProductName:     getEnv("LISTING_FEE_PRODUCT", "Room listing fee"),
			SuccessURL:      frontend + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:       frontend + "/payment-cancelled",
		},
		Storage: StorageConfig{
			SupabaseURL:   strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			SupabaseKey:   os.Getenv("SUPABASE_SERVICE_KEY"),
			Bucket:        getEnv("SUPABASE_BUCKET", "room-images"),
			MaxImageBytes: getEnvAsInt("STORAGE_MAX_IMAGE_BYTES", 5*1024*1024),
			MaxImages:     getEnvAsInt("STORAGE_MAX_IMAGES", 5),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Search: SearchConfig{
			RadiusMeters: radius,
			DefaultLimit: getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvAsInt("SEARCH_MAX_LIMIT", 100),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// EventTTL is how long a processed payment event ID is remembered.
func (r RedisConfig) EventTTL() time.Duration {
	if r.EventTTLHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(r.EventTTLHours) * time.Hour
}

// Configured reports whether Supabase credentials are present.
func (s StorageConfig) Configured() bool {
	return s.SupabaseURL != "" && s.SupabaseKey != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
