package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	// Server
	Port               string `env:"PORT" envDefault:"8090"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"inkpress"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Admin auth (single back-office user)
	AdminEmail       string `env:"ADMIN_EMAIL" envDefault:"admin@inkpress.dev"`
	AdminPassword    string `env:"ADMIN_PASSWORD"`
	AdminDisplayName string `env:"ADMIN_DISPLAY_NAME" envDefault:"Admin"`
	JWTSecret        string `env:"JWT_SECRET"`

	// Object storage (S3-compatible); media uploads are disabled when
	// the endpoint is empty.
	StorageEndpoint  string `env:"STORAGE_ENDPOINT"`
	StorageRegion    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"inkpress-media"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY"`

	// Optional Redis cache for log stats; direct DB reads when empty.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Audit log retention
	LogRetentionDays    int `env:"LOG_RETENTION_DAYS" envDefault:"90"`
	RetentionSweepHours int `env:"RETENTION_SWEEP_HOURS" envDefault:"24"`
}

// Load reads configuration from environment variables.
// A .env file is optional, mainly for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
