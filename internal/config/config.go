// Package config loads runtime configuration from the environment, the way
// the teacher's flashcard service does: a single Load() that reads a .env
// file if present, then falls back to process defaults per variable.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MinerUConfig mirrors the §4.2 configuration table for the mineru variant.
type MinerUConfig struct {
	BaseURL       string
	Language      string
	ParseMethod   string
	FormulaEnable bool
	TableEnable   bool
	MakeMode      string
}

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	GoogleAPIKey string
	OpenAIAPIKey string

	MinerU MinerUConfig

	APIKeys             []string
	RateLimitPerMinute  int
	MaxConcurrentParses int
	MaxQueueDepth       int
	MaxFileSizeMB       int
	CORSOrigins         []string
	UploadDir           string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development).
	_ = godotenv.Load()

	cfg := Config{
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		MinerU: MinerUConfig{
			BaseURL:       getEnv("MINERU_BASE_URL", "http://localhost:8008"),
			Language:      getEnv("MINERU_LANGUAGE", "korean"),
			ParseMethod:   getEnv("MINERU_PARSE_METHOD", "auto"),
			FormulaEnable: getEnvBool("MINERU_FORMULA_ENABLE", true),
			TableEnable:   getEnvBool("MINERU_TABLE_ENABLE", true),
			MakeMode:      getEnv("MINERU_MAKE_MODE", "mm_markdown"),
		},
		APIKeys:             getEnvList("API_KEYS"),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxConcurrentParses: getEnvInt("MAX_CONCURRENT_PARSES", 4),
		MaxQueueDepth:       getEnvInt("MAX_QUEUE_DEPTH", 32),
		MaxFileSizeMB:       getEnvInt("MAX_FILE_SIZE_MB", 50),
		CORSOrigins:         getEnvList("CORS_ORIGINS"),
		UploadDir:           getEnv("UPLOAD_DIR", "./data/uploads"),
	}

	return cfg
}

// RequireGoogleAPIKey reports whether GOOGLE_API_KEY is configured (§6: this
// variable is required regardless of which LLM variant is chosen, since
// Gemini backs the default model spec).
func (c Config) RequireGoogleAPIKey() bool {
	return c.GoogleAPIKey != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
