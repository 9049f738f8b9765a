package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	ActivityDatabase *DatabaseConfig // Optional: separate DB for activity logs. When nil, the main DB is used.
	Auth             AuthConfig
	OTP              OTPConfig
	Mail             MailConfig
	Storage          StorageConfig
	Policy           PolicyConfig
	Observability    ObservabilityConfig
	Environment      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret        string
	Issuer           string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	PasswordResetTTL time.Duration
	PrincipalCache   int
}

// OTPConfig holds one time password limits
type OTPConfig struct {
	Length        int
	DailyTries    int
	ResendTries   int
	Validity      time.Duration
	SenderID      string
	MessageFormat string
}

// MailConfig holds SMTP settings for outgoing mail
type MailConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	TLS          bool
	ResetPageURL string // frontend page receiving the reset token
	Enabled      bool
	SendTimeout  time.Duration
	ResetSubject string
	FromName     string
}

// StorageConfig holds document storage settings
type StorageConfig struct {
	Root         string
	UploadPrefix string
	MaxFileSize  int64
}

// PolicyConfig points at an optional policy file replacing the built-in policies
type PolicyConfig struct {
	File string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database:         loadDatabaseConfig(),
		ActivityDatabase: loadActivityDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			Issuer:           getEnv("JWT_ISSUER", "farmers-heaven"),
			AccessTokenTTL:   getEnvAsDuration("ACCESS_TOKEN_TTL", 5*time.Hour),
			RefreshTokenTTL:  getEnvAsDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
			PasswordResetTTL: getEnvAsDuration("PASSWORD_RESET_TTL", 24*time.Hour),
			PrincipalCache:   getEnvAsInt("PRINCIPAL_CACHE_SIZE", 1024),
		},
		OTP: OTPConfig{
			Length:        getEnvAsInt("OTP_LENGTH", 6),
			DailyTries:    getEnvAsInt("OTP_DAILY_TRIES", 25),
			ResendTries:   getEnvAsInt("OTP_RESEND_TRIES", 25),
			Validity:      getEnvAsDuration("OTP_VALIDITY", 15*time.Minute),
			SenderID:      getEnv("SMS_SENDER_ID", "FRMHVN"),
			MessageFormat: getEnv("OTP_MESSAGE_FORMAT", "%s is your Farmers Heaven verification code."),
		},
		Mail: MailConfig{
			Host:          getEnv("SMTP_HOST", "localhost"),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Username:      getEnv("SMTP_USERNAME", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			From:          getEnv("MAIL_FROM", "no-reply@farmersheaven.local"),
			TLS:           getEnvAsBool("SMTP_TLS", true),
			ResetPageURL:  getEnv("FRONTEND_RESET_URL", "http://localhost:3000/reset-password"),
			Enabled:       getEnvAsBool("MAIL_ENABLED", false),
			SendTimeout:   getEnvAsDuration("MAIL_SEND_TIMEOUT", 15*time.Second),
			ResetSubject:  getEnv("MAIL_RESET_SUBJECT", "Reset your Farmers Heaven password"),
			FromName:      getEnv("MAIL_FROM_NAME", "Farmers Heaven Support"),
		},
		Storage: StorageConfig{
			Root:         getEnv("STORAGE_ROOT", "./data"),
			UploadPrefix: getEnv("UPLOAD_PREFIX", "media"),
			MaxFileSize:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Policy: PolicyConfig{
			File: getEnv("POLICY_FILE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Auth.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		c.Auth.JWTSecret = "development-secret"
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("otp length must be between 4 and 10")
	}

	if c.Mail.Enabled && c.Mail.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when mail is enabled")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return pool
	}
	pool.Host = getEnv("DB_HOST", "localhost")
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "farmers")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "farmers_heaven")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return pool
}

// loadActivityDatabaseConfig returns nil when DATABASE_URL_ACTIVITY is unset
func loadActivityDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL_ACTIVITY", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
