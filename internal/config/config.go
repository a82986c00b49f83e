package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the toolkit's entrypoints
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	JWT         JWTConfig
	Batch       BatchConfig
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret      string
	ExpiryHours int
	Issuer      string
}

// BatchConfig holds queue consumer configuration
type BatchConfig struct {
	MaxWorkers    int
	RatePerSecond float64
	MaxAttempts   int
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Set up Viper
	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8081")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_ISSUER", "lambdakit")
	viper.SetDefault("BATCH_MAX_WORKERS", 4)
	viper.SetDefault("BATCH_RATE_PER_SECOND", 0.0)
	viper.SetDefault("BATCH_MAX_ATTEMPTS", 3)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		Port:        viper.GetString("PORT"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
			Issuer:      viper.GetString("JWT_ISSUER"),
		},
		Batch: BatchConfig{
			MaxWorkers:    viper.GetInt("BATCH_MAX_WORKERS"),
			RatePerSecond: viper.GetFloat64("BATCH_RATE_PER_SECOND"),
			MaxAttempts:   viper.GetInt("BATCH_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
