package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Gateway    GatewayConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	StoreDriver    string
	AllowedOrigins []string
}

// AttendanceConfig holds the work schedule used to derive attendance status
type AttendanceConfig struct {
	WorkStartTime        string
	WorkEndTime          string
	LateThresholdMinutes int
	LateDetection        bool
	HalfDayHours         float64
	SyncInterval         time.Duration
}

// GatewayConfig holds the remote attendance API settings
type GatewayConfig struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "afraexpress_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Local"),
		StoreDriver:    getEnv("STORE_DRIVER", "postgres"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	// Attendance configuration
	lateThreshold, err := strconv.Atoi(getEnv("LATE_THRESHOLD_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_THRESHOLD_MINUTES: %w", err)
	}
	lateDetection, err := strconv.ParseBool(getEnv("LATE_DETECTION_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_DETECTION_ENABLED: %w", err)
	}
	halfDayHours, err := strconv.ParseFloat(getEnv("HALF_DAY_HOURS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HALF_DAY_HOURS: %w", err)
	}
	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		WorkStartTime:        getEnv("WORK_START_TIME", "09:00"),
		WorkEndTime:          getEnv("WORK_END_TIME", "17:00"),
		LateThresholdMinutes: lateThreshold,
		LateDetection:        lateDetection,
		HalfDayHours:         halfDayHours,
		SyncInterval:         syncInterval,
	}

	// Remote gateway configuration
	gatewayTimeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	retryAttempts, err := strconv.ParseUint(getEnv("GATEWAY_RETRY_ATTEMPTS", "3"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_RETRY_ATTEMPTS: %w", err)
	}
	retryDelay, err := time.ParseDuration(getEnv("GATEWAY_RETRY_DELAY", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_RETRY_DELAY: %w", err)
	}

	config.Gateway = GatewayConfig{
		BaseURL:       strings.TrimRight(getEnv("GATEWAY_BASE_URL", ""), "/"),
		Token:         getEnv("GATEWAY_TOKEN", ""),
		Timeout:       gatewayTimeout,
		RetryAttempts: uint(retryAttempts),
		RetryDelay:    retryDelay,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.StoreDriver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.App.StoreDriver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.Parse("15:04", c.Attendance.WorkStartTime); err != nil {
		return fmt.Errorf("WORK_START_TIME must be HH:MM")
	}
	if _, err := time.Parse("15:04", c.Attendance.WorkEndTime); err != nil {
		return fmt.Errorf("WORK_END_TIME must be HH:MM")
	}
	if c.Attendance.LateThresholdMinutes < 0 {
		return fmt.Errorf("LATE_THRESHOLD_MINUTES must not be negative")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Gateway.RetryAttempts == 0 {
		return fmt.Errorf("GATEWAY_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// Location resolves APP_TIMEZONE, falling back to the host zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		slog.Warn("Invalid APP_TIMEZONE, using local time", "timezone", c.App.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
