package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const defaultSigningKey = "defaultsecretkey"

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FileStorageConfig selects and configures the upload backend
type FileStorageConfig struct {
	Backend        string // "local" or "s3"
	Root           string
	WebPath        string
	MaxUploadBytes int64
}

// S3Config holds S3 / MinIO settings
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// AppURLsConfig holds the web app base URLs used in email links
type AppURLsConfig struct {
	WebApp           string
	ProductionWebApp string
}

// RedisConfig holds cache settings
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds notification publisher settings
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RateLimitConfig holds limits for the sensitive account endpoints
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// SecurityConfig holds token lifetimes
type SecurityConfig struct {
	TwoFactorTTL    time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	SweepSchedule   string
}

// Config holds all configuration
type Config struct {
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	SMTP        SMTPConfig
	FileStorage FileStorageConfig
	S3          S3Config
	AppURLs     AppURLsConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	Security    SecurityConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "restaurants"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", defaultSigningKey),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@restaurants.local"),
		},
		FileStorage: FileStorageConfig{
			Backend:        getEnv("FILE_STORAGE_BACKEND", "local"),
			Root:           getEnv("FILE_STORAGE_ROOT", "./uploads"),
			WebPath:        getEnv("FILE_STORAGE_WEB_PATH", "/uploads"),
			MaxUploadBytes: int64(getEnvAsInt("FILE_STORAGE_MAX_UPLOAD_BYTES", 5*1024*1024)),
		},
		S3: S3Config{
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		AppURLs: AppURLsConfig{
			WebApp:           getEnv("APP_WEBAPP_URL", "http://localhost:3000"),
			ProductionWebApp: getEnv("APP_PRODUCTION_WEBAPP_URL", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "restaurant.notifications"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsInt("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Security: SecurityConfig{
			TwoFactorTTL:    getEnvAsDuration("TWO_FACTOR_TTL", 15*time.Minute),
			VerificationTTL: getEnvAsDuration("VERIFICATION_TTL", 24*time.Hour),
			ResetTTL:        getEnvAsDuration("RESET_TTL", 1*time.Hour),
			SweepSchedule:   getEnv("TOKEN_SWEEP_SCHEDULE", "@every 15m"),
		},
	}

	return config, nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// WebAppURL returns the base URL that email links point at
func (c *Config) WebAppURL() string {
	if c.IsProduction() {
		return strings.TrimRight(c.AppURLs.ProductionWebApp, "/")
	}
	return strings.TrimRight(c.AppURLs.WebApp, "/")
}

// Validate rejects settings that cannot work in the selected environment
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && c.JWT.SigningKey == defaultSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	switch c.FileStorage.Backend {
	case "local":
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FILE_STORAGE_BACKEND %q", c.FileStorage.Backend))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when Kafka is enabled"))
	}
	return errors.Join(errs...)
}

// LogFields returns the configuration as zap fields, without secrets
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("storage_backend", c.FileStorage.Backend),
		zap.Bool("smtp_enabled", c.SMTP.Enabled),
		zap.Bool("redis_enabled", c.Redis.Enabled),
		zap.Bool("kafka_enabled", c.Kafka.Enabled),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// comma separated, blanks dropped
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
