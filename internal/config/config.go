package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string `yaml:"port"`
	Environment     string `yaml:"environment"`
	SupabaseURL     string `yaml:"supabase_url"`
	SupabaseKey     string `yaml:"-"`
	DatabaseURL     string `yaml:"database_url"`
	SupabaseJWKSURL string `yaml:"-"` // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string `yaml:"cors_origins"`
	TablePrefix     string `yaml:"table_prefix"`

	// Persistence backends
	DatabaseBackend string `yaml:"database_backend"` // "postgres" or "memory"
	ContentBackend  string `yaml:"content_backend"`  // "fs" or "s3"
	ContentDir      string `yaml:"content_dir"`
	S3Endpoint      string `yaml:"s3_endpoint"`
	S3AccessKey     string `yaml:"-"`
	S3SecretKey     string `yaml:"-"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3UseSSL        bool   `yaml:"s3_use_ssl"`

	// Per-document locking: "none", "local" or "redis"
	DocumentLock string `yaml:"document_lock"`
	RedisURL     string `yaml:"redis_url"`

	// LLM Configuration
	AnthropicAPIKey    string `yaml:"-"`
	AnthropicBaseURL   string `yaml:"anthropic_base_url"`
	CompletionProvider string `yaml:"completion_provider"` // "anthropic" or "lorem"
	ChatModel          string `yaml:"chat_model"`
	MaxOutputTokens    int    `yaml:"max_output_tokens"`

	// Auth
	AuthDisabled bool   `yaml:"auth_disabled"`
	DevUserID    string `yaml:"dev_user_id"`

	// Logging
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`

	// Debug flags
	Debug bool `yaml:"debug"`
}

// Load reads configuration from the environment. If CONFIG_FILE is set, the
// YAML file it points to is applied on top of the environment values.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		SupabaseURL: supabaseURL,
		SupabaseKey: getEnv("SUPABASE_KEY", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		DatabaseBackend: getEnv("DATABASE_BACKEND", "postgres"),
		ContentBackend:  getEnv("CONTENT_BACKEND", "fs"),
		ContentDir:      getEnv("CONTENT_DIR", "./storage/prds"),
		S3Endpoint:      getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3Bucket:        getEnv("S3_BUCKET", "prd-tool"),
		S3UseSSL:        getEnv("S3_USE_SSL", "false") == "true",

		DocumentLock: getEnv("DOCUMENT_LOCK", "none"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL:   getEnv("ANTHROPIC_BASE_URL", ""),
		CompletionProvider: getEnv("COMPLETION_PROVIDER", "anthropic"),
		ChatModel:          getEnv("ANTHROPIC_MODEL_CHAT", "claude-opus-4-20250514"),
		MaxOutputTokens:    getEnvInt("ANTHROPIC_MAX_TOKENS", 4096),

		AuthDisabled: getEnv("AUTH_DISABLED", "false") == "true",
		DevUserID:    getEnv("DEV_USER_ID", ""),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// Construct JWKS URL from Supabase URL
	cfg.SupabaseJWKSURL = cfg.SupabaseURL + "/auth/v1/.well-known/jwks.json"

	return cfg, nil
}

// applyFile overlays values from a YAML file. Secrets are never read from the
// file; they stay environment-only.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
