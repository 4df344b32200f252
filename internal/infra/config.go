package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment
// variables. DatabaseURL is optional: without it the API runs jobs in-process
// on an in-memory store instead of handing them to the worker.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	StoragePath    string
	StorageBaseURL string
	WorkDir        string

	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string
	LLMOrg     string

	ComfyBaseURL string

	KeyAIAPIKey  string
	KeyAIBaseURL string

	FFmpegBin  string
	FFprobeBin string

	PipelineConfigPath string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		WorkDir:        getEnv("WORK_DIR", "./work"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMOrg:     os.Getenv("LLM_ORG"),

		ComfyBaseURL: getEnv("COMFY_BASE_URL", "http://localhost:8188"),

		KeyAIAPIKey:  os.Getenv("KEYAI_API_KEY"),
		KeyAIBaseURL: os.Getenv("KEYAI_BASE_URL"),

		FFmpegBin:  getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin: getEnv("FFPROBE_BIN", "ffprobe"),

		PipelineConfigPath: os.Getenv("PIPELINE_CONFIG_PATH"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
