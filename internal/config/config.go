package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// OpenAI
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIVisionModel string
	OpenAIMaxTokens   int
	OpenAITemperature float32
	TTSModel          string
	TTSVoice          string

	// Replicate
	ReplicateAPIToken          string
	ReplicateBaseURL           string
	ReplicateAnimationModel    string
	ReplicateImageToVideoModel string
	ReplicatePollInterval      time.Duration

	// Supabase
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseJWTSecret     string
	SupabaseStorageBucket string

	// Database
	DatabaseURL string

	// Uploads
	UploadDir            string
	MaxFileSize          int64
	MaxFiles             int
	AllowedFileTypes     []string
	StagingTTL           time.Duration
	StagingSweepSchedule string

	// Pipeline
	PipelineTimeout time.Duration

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Server
	Port        string
	Environment string
	BaseURL     string
	LogLevel    string
	LogFormat   string
}

func Load() (*Config, error) {
	cfg := &Config{
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		TTSModel:          getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:          getEnv("TTS_VOICE", "alloy"),

		ReplicateAPIToken:          getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateBaseURL:           getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateAnimationModel:    getEnv("REPLICATE_ANIMATION_MODEL", "anotherjesse/animagine-xl-3.1:bfb3f62a8c23e24a34cede7ab7d9736d4121143d87f5c110582e9ac0a5abc19e"),
		ReplicateImageToVideoModel: getEnv("REPLICATE_IMAGE_TO_VIDEO_MODEL", "stability-ai/stable-video-diffusion:3f0457e4619daac51203dedb472816fd4af51f3149fa7a9e0b5ffcf1b8172438"),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:     getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "dream-media"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		UploadDir:            getEnv("UPLOAD_DIR", "uploads"),
		AllowedFileTypes:     splitList(getEnv("ALLOWED_FILE_TYPES", "image/jpeg,image/png,image/jpg")),
		StagingSweepSchedule: getEnv("STAGING_SWEEP_SCHEDULE", "@every 15m"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	defaultFormat := "console"
	if cfg.IsProduction() {
		defaultFormat = "json"
	}
	cfg.LogFormat = getEnv("LOG_FORMAT", defaultFormat)

	var err error
	if cfg.OpenAIMaxTokens, err = getEnvInt("OPENAI_MAX_TOKENS", 1000); err != nil {
		return nil, err
	}
	temperature, err := getEnvFloat("OPENAI_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}
	cfg.OpenAITemperature = float32(temperature)
	if cfg.ReplicatePollInterval, err = getEnvDuration("REPLICATE_POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	maxFileSize, err := getEnvInt("MAX_FILE_SIZE", 10485760)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxFileSize)
	if cfg.MaxFiles, err = getEnvInt("MAX_FILES", 5); err != nil {
		return nil, err
	}
	if cfg.StagingTTL, err = getEnvDuration("STAGING_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.PipelineTimeout, err = getEnvDuration("PIPELINE_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 1); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("MAX_FILES must be positive")
	}
	if len(c.AllowedFileTypes) == 0 {
		return fmt.Errorf("ALLOWED_FILE_TYPES must list at least one type")
	}
	if c.PipelineTimeout <= 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether upstream error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
