package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Mailer      MailerConfig
	Auth        AuthConfig
	Orders      OrdersConfig
	Cache       CacheConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MailerConfig configures the outbound mail API client.
// An empty APIKey leaves the mailer disabled, which is a valid state.
type MailerConfig struct {
	APIBase     string
	APIKey      string
	FromAddress string
	FromName    string
}

type AuthConfig struct {
	JWTSecret string
}

// OrdersConfig carries the marketplace pricing policy
type OrdersConfig struct {
	DefaultCommissionRate float64
	TaxRate               float64
}

type CacheConfig struct {
	AdminIDsTTL   time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "marketapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Mailer: MailerConfig{
			APIBase:     getEnvOrViper("MAIL_API_BASE", "https://api.mailprovider.example/v1"),
			APIKey:      getEnvOrViper("MAIL_API_KEY", ""),
			FromAddress: getEnvOrViper("MAIL_FROM_ADDRESS", "orders@jafarshop.com"),
			FromName:    getEnvOrViper("MAIL_FROM_NAME", "Jafar Shop"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrViper("JWT_SECRET", ""),
		},
		Orders: OrdersConfig{
			DefaultCommissionRate: getFloatOrViper("COMMISSION_RATE", 0.10),
			TaxRate:               getFloatOrViper("TAX_RATE", 0.10),
		},
		Cache: CacheConfig{
			AdminIDsTTL:   getDurationOrViper("ADMIN_CACHE_TTL", 5*time.Minute),
			SweepInterval: getDurationOrViper("CACHE_SWEEP_INTERVAL", time.Minute),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getFloatOrViper(key string, defaultValue float64) float64 {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

func getDurationOrViper(key string, defaultValue time.Duration) time.Duration {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return val
}
