package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	DBPath string

	// Planning
	DefaultPeriod string

	// Bootstrap
	SeedDefaults bool
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DBPath:        getEnv("DB_PATH", "finance.db"),
		DefaultPeriod: getEnv("DEFAULT_PERIOD", "Месяц"),
	}

	seed := getEnv("SEED_DEFAULTS", "true")
	seedDefaults, err := strconv.ParseBool(seed)
	if err != nil {
		log.Printf("Warning: invalid SEED_DEFAULTS value '%s', falling back to true\n", seed)
		seedDefaults = true
	}
	config.SeedDefaults = seedDefaults

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
