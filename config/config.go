package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	SessionTTL         time.Duration
	BillTokenTTL       time.Duration
	ConsentWindow      time.Duration
	ConsentLimit       int
	PublicRateLimit    string
	PublicBaseURL      string
	QRCodeServiceURL   string
	CORSAllowedOrigins []string
	RedisURL           string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Environment-specific file first, then .env; in containers the
	// variables are usually set directly so both may be absent.
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found, using system environment variables")
		}
	} else {
		slog.Info("Loaded configuration", "file", envFile)
	}

	d := Default()
	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", d.DatabaseURL),
		Port:               getEnv("PORT", d.Port),
		GoEnv:              env,
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", d.JWTIssuer),
		JWTAudience:        getEnv("JWT_AUDIENCE", d.JWTAudience),
		SessionTTL:         getDuration("SESSION_TTL", d.SessionTTL),
		BillTokenTTL:       getDuration("BILL_TOKEN_TTL", d.BillTokenTTL),
		ConsentWindow:      getDuration("CONSENT_WINDOW", d.ConsentWindow),
		ConsentLimit:       getInt("CONSENT_LIMIT", d.ConsentLimit),
		PublicRateLimit:    getEnv("PUBLIC_RATE_LIMIT", d.PublicRateLimit),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", d.PublicBaseURL), "/"),
		QRCodeServiceURL:   getEnv("QR_CODE_SERVICE_URL", d.QRCodeServiceURL),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", d.CORSAllowedOrigins),
		RedisURL:           getEnv("REDIS_URL", ""),
		AWSRegion:          getEnv("AWS_REGION", d.AWSRegion),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", d.LogLevel),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	current = config
	return config, nil
}

// Default returns the configuration used when no environment is set. It
// has no signing source, so it does not pass Validate on its own.
func Default() *Config {
	return &Config{
		Port:               "8080",
		GoEnv:              "development",
		JWTIssuer:          "restaurant-api",
		JWTAudience:        "restaurant-api",
		SessionTTL:         12 * time.Hour,
		BillTokenTTL:       2 * time.Hour,
		ConsentWindow:      5 * time.Minute,
		ConsentLimit:       3,
		PublicRateLimit:    "60-M",
		PublicBaseURL:      "http://localhost:5173",
		QRCodeServiceURL:   "https://api.qrserver.com/v1/create-qr-code/",
		CORSAllowedOrigins: []string{"*"},
		AWSRegion:          "us-east-1",
		LogLevel:           "info",
	}
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && c.Auth0Domain == "" {
		return fmt.Errorf("either JWT_SECRET or AUTH0_DOMAIN is required")
	}
	if c.BillTokenTTL <= 0 {
		return fmt.Errorf("BILL_TOKEN_TTL must be positive")
	}
	if c.ConsentLimit <= 0 {
		return fmt.Errorf("CONSENT_LIMIT must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// UsesAuth0 reports whether bearer tokens are issued by Auth0 rather than
// minted locally.
func (c *Config) UsesAuth0() bool {
	return c.Auth0Domain != ""
}

// GetConfig returns the configuration produced by the last successful Load
// or SetConfig call.
func GetConfig() *Config {
	return current
}

// SetConfig replaces the active configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
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
