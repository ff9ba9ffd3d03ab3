package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Storage Configuration
	STORAGE_DRIVER string // s3 or local
	S3_BUCKET      string
	S3_REGION      string
	S3_ENDPOINT    string
	S3_ACCESS_KEY  string
	S3_SECRET_KEY  string
	S3_CDN_URL     string
	MEDIA_ROOT     string
	MEDIA_URL      string
	// Mail Configuration
	SENDGRID_API_KEY string
	MAIL_FROM        string
	// HTTP
	ALLOWED_ORIGINS string
	// Background jobs
	CRON_ENABLED      bool
	CATALOG_CACHE_TTL time.Duration
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := getEnvOrDefault("DB_HOST", "localhost")
	dbPort := getEnvOrDefault("DB_PORT", "5432")

	cacheTTL, err := time.ParseDuration(os.Getenv("CATALOG_CACHE_TTL"))
	if err != nil || cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "educa-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// Storage
		STORAGE_DRIVER: getEnvOrDefault("STORAGE_DRIVER", "local"),
		S3_BUCKET:      os.Getenv("S3_BUCKET"),
		S3_REGION:      getEnvOrDefault("S3_REGION", "us-east-1"),
		S3_ENDPOINT:    os.Getenv("S3_ENDPOINT"),
		S3_ACCESS_KEY:  os.Getenv("S3_ACCESS_KEY"),
		S3_SECRET_KEY:  os.Getenv("S3_SECRET_KEY"),
		S3_CDN_URL:     os.Getenv("S3_CDN_URL"),
		MEDIA_ROOT:     getEnvOrDefault("MEDIA_ROOT", "./media"),
		MEDIA_URL:      getEnvOrDefault("MEDIA_URL", "/media"),
		// Mail
		SENDGRID_API_KEY: os.Getenv("SENDGRID_API_KEY"),
		MAIL_FROM:        getEnvOrDefault("MAIL_FROM", "noreply@educa.local"),
		// HTTP
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
		// Background jobs
		CRON_ENABLED:      os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		CATALOG_CACHE_TTL: cacheTTL,
	}

	return envVariables, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
