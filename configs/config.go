// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	// Provider credentials (§6.4). None is required at load time since the
	// provider is a per-request option, not a process-wide setting — only
	// the provider actually selected by a request needs its key present.
	GEMINI_API_KEY       string
	OPENAI_API_KEY       string
	AZURE_OPENAI_API_KEY string
	AZURE_OPENAI_ENDPOINT string
	AZURE_OPENAI_DEPLOYMENT string
	AZURE_OPENAI_API_VERSION string

	GEMINI_MODEL_NAME string
	OPENAI_MODEL_NAME string

	// OCR collaborator
	OCR_LANGUAGE    string
	OCR_CONCURRENCY int

	// Server
	PORT            string
	ALLOWED_ORIGINS string

	// PDF rasterisation defaults (§4.1)
	PDF_RENDER_DPI     int
	PDF_JPEG_QUALITY   int
	PDF_MAX_PAGES      int
	PDF_MAX_WIDTH      int
	PDF_GRAYSCALE      bool
	PDF_NORMALISE      bool

	// Timeouts (§5)
	REQUEST_TIMEOUT_SECONDS int
	TILE_TIMEOUT_SECONDS    int
	WHOLE_DOC_TIMEOUT_SECONDS int

	// Debug surface (§6.4)
	VERBOSE_DEBUG   bool
	DEBUG_OUTPUT_DIR string
)

// LoadConfig loads configuration from environment variables.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	OPENAI_API_KEY = getEnv("OPENAI_API_KEY", "")
	AZURE_OPENAI_API_KEY = getEnv("AZURE_OPENAI_API_KEY", "")
	AZURE_OPENAI_ENDPOINT = getEnv("AZURE_OPENAI_ENDPOINT", "")
	AZURE_OPENAI_DEPLOYMENT = getEnv("AZURE_OPENAI_DEPLOYMENT", "")
	AZURE_OPENAI_API_VERSION = getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01")

	GEMINI_MODEL_NAME = getEnv("GEMINI_MODEL_NAME", "gemini-2.5-flash")
	OPENAI_MODEL_NAME = getEnv("OPENAI_MODEL_NAME", "gpt-4o")

	OCR_LANGUAGE = getEnv("OCR_LANGUAGE", "eng")
	OCR_CONCURRENCY = getEnvInt("OCR_CONCURRENCY", 3)

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")

	PDF_RENDER_DPI = getEnvInt("PDF_RENDER_DPI", 200)
	PDF_JPEG_QUALITY = getEnvInt("PDF_JPEG_QUALITY", 90)
	PDF_MAX_PAGES = getEnvInt("PDF_MAX_PAGES", 50)
	PDF_MAX_WIDTH = getEnvInt("PDF_MAX_WIDTH", 2000)
	PDF_GRAYSCALE = getEnvBool("PDF_GRAYSCALE", false)
	PDF_NORMALISE = getEnvBool("PDF_NORMALISE", true)

	REQUEST_TIMEOUT_SECONDS = getEnvInt("REQUEST_TIMEOUT_SECONDS", 300)
	TILE_TIMEOUT_SECONDS = getEnvInt("TILE_TIMEOUT_SECONDS", 90)
	WHOLE_DOC_TIMEOUT_SECONDS = getEnvInt("WHOLE_DOC_TIMEOUT_SECONDS", 180)

	VERBOSE_DEBUG = getEnvBool("VERBOSE_DEBUG", false)
	DEBUG_OUTPUT_DIR = getEnv("DEBUG_OUTPUT_DIR", "")

	log.Println("✓ Configuration loaded successfully")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
