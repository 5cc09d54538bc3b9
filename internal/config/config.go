package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port       int
	MaxWorkers int
	LogFormat  string

	// Upload limits
	MaxFileSizeBytes  int64
	AllowedMediaTypes []string

	// Database configuration
	PostgresDBURL string

	// Local content store
	StorageRoot string

	// AI configuration (vision OCR + external classifier)
	OpenRouterAPIKey  string
	OpenRouterModelID string
	OpenRouterTimeout time.Duration
	UseAIParser       bool
	UseAIClassifier   bool

	// Optional S3-compatible archive (Supabase storage)
	ArchiveEndpoint        string
	ArchiveBucket          string
	ArchiveRegion          string
	ArchiveAccessKeyID     string
	ArchiveAccessKeySecret string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	}

	config := &Config{
		// Server configuration
		Port:       getEnvInt("PORT", 8080),
		MaxWorkers: getEnvInt("MAX_WORKERS", 5),
		LogFormat:  getEnvString("LOG_FORMAT", "pretty"),

		// Upload limits
		MaxFileSizeBytes: int64(getEnvInt("MAX_FILE_SIZE_BYTES", 15728640)),
		AllowedMediaTypes: getEnvStringSlice("ALLOWED_MEDIA_TYPES",
			[]string{"image/jpeg", "image/jpg", "image/png", "application/pdf", "text/plain"}),

		// Database configuration
		PostgresDBURL: os.Getenv("POSTGRES_DB_URL"),

		// Local content store
		StorageRoot: getEnvString("STORAGE_ROOT", "uploads"),

		// AI configuration
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModelID: getEnvString("OPENROUTER_MODEL_ID", "meta-llama/llama-3.2-11b-vision-instruct:free"),
		OpenRouterTimeout: time.Duration(getEnvInt("OPENROUTER_TIMEOUT", 60)) * time.Second,
		UseAIParser:       getEnvBool("USE_AI_PARSER", false),
		UseAIClassifier:   getEnvBool("USE_AI_CLASSIFIER", false),

		// Archive storage configuration
		ArchiveEndpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveBucket:          getEnvString("ARCHIVE_BUCKET", "receipts"),
		ArchiveRegion:          getEnvString("ARCHIVE_REGION", "us-east-1"),
		ArchiveAccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
		ArchiveAccessKeySecret: os.Getenv("ARCHIVE_ACCESS_KEY_SECRET"),
	}

	// Validate critical configuration
	validateConfig(config)

	return config, nil
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	if config.PostgresDBURL == "" {
		log.Println("Warning: No POSTGRES_DB_URL provided. Database connection will fail.")
	}

	if config.OpenRouterAPIKey == "" {
		log.Println("Warning: No OpenRouter API key provided. Image receipts will use mock extraction.")
	}

	if (config.UseAIParser || config.UseAIClassifier) && config.OpenRouterAPIKey == "" {
		log.Println("Warning: AI parsing/classification enabled without an OpenRouter API key.")
	}

	if config.ArchiveEndpoint != "" && (config.ArchiveAccessKeyID == "" || config.ArchiveAccessKeySecret == "") {
		log.Println("Warning: Archive endpoint set without access keys. Archive uploads will fail.")
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvStringSlice gets a string slice from a comma-separated environment variable
func getEnvStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
