package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int      `yaml:"port"`
	Environment string   `yaml:"environment"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`

	TempDir           string        `yaml:"temp_dir"`
	StaleRunAge       time.Duration `yaml:"stale_run_age"`
	FFmpegPath        string        `yaml:"ffmpeg_path"`
	FFprobePath       string        `yaml:"ffprobe_path"`
	TranscodeStrategy string        `yaml:"transcode_strategy"`

	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	RequestBudget      time.Duration `yaml:"request_budget"`
	ServerWriteTimeout time.Duration `yaml:"server_write_timeout"`
	MaxVideoBytes      int64         `yaml:"max_video_bytes"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`

	HuggingFaceAPIKey     string        `yaml:"huggingface_api_key"`
	HFBaseURL             string        `yaml:"hf_base_url"`
	ASREngine             string        `yaml:"asr_engine"`
	ASRModel              string        `yaml:"asr_model"`
	ASRLanguage           string        `yaml:"asr_language"`
	OpenAIAPIKey          string        `yaml:"openai_api_key"`
	OpenAIBaseURL         string        `yaml:"openai_base_url"`
	TranscribeMaxAttempts int           `yaml:"transcribe_max_attempts"`
	SummaryModel          string        `yaml:"summary_model"`
	SummaryMaxAttempts    int           `yaml:"summary_max_attempts"`
	SummaryBaseDelay      time.Duration `yaml:"summary_base_delay"`
	SummaryBackoff        string        `yaml:"summary_backoff"`

	CompletionProvider string `yaml:"completion_provider"`
	CompletionAPIKey   string `yaml:"completion_api_key"`
	CompletionBaseURL  string `yaml:"completion_base_url"`
	CompletionModel    string `yaml:"completion_model"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:        8080,
		Environment: "local",
		LogLevel:    "info",
		CORSOrigins: []string{"*"},

		StaleRunAge:       time.Hour,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		TranscodeStrategy: "auto",

		FetchTimeout:       15 * time.Second,
		RequestBudget:      25 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		MaxVideoBytes:      200 << 20,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 30,

		ASREngine:             "huggingface",
		ASRLanguage:           "en",
		TranscribeMaxAttempts: 1,
		SummaryMaxAttempts:    3,
		SummaryBaseDelay:      time.Second,
		SummaryBackoff:        "linear",

		CompletionProvider: "groq",
	}
}

// Load reads an optional .env file, an optional YAML file named by
// CONFIG_FILE, then environment variables, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Port = getInt("PORT", c.Port, &errs)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	c.TempDir = getEnv("TEMP_DIR", c.TempDir)
	c.StaleRunAge = getDuration("STALE_RUN_AGE", c.StaleRunAge, &errs)
	c.FFmpegPath = getEnv("FFMPEG_PATH", c.FFmpegPath)
	c.FFprobePath = getEnv("FFPROBE_PATH", c.FFprobePath)
	c.TranscodeStrategy = getEnv("TRANSCODE_STRATEGY", c.TranscodeStrategy)

	c.FetchTimeout = getDuration("FETCH_TIMEOUT", c.FetchTimeout, &errs)
	c.RequestBudget = getDuration("REQUEST_BUDGET", c.RequestBudget, &errs)
	c.ServerWriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.ServerWriteTimeout, &errs)
	c.MaxVideoBytes = getInt64("MAX_VIDEO_BYTES", c.MaxVideoBytes, &errs)
	c.MaxBodyBytes = getInt64("MAX_BODY_BYTES", c.MaxBodyBytes, &errs)
	c.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute, &errs)

	c.HuggingFaceAPIKey = getEnv("HUGGINGFACE_API_KEY", c.HuggingFaceAPIKey)
	c.HFBaseURL = getEnv("HF_BASE_URL", c.HFBaseURL)
	c.ASREngine = getEnv("ASR_ENGINE", c.ASREngine)
	c.ASRModel = getEnv("ASR_MODEL", c.ASRModel)
	c.ASRLanguage = getEnv("ASR_LANGUAGE", c.ASRLanguage)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.TranscribeMaxAttempts = getInt("TRANSCRIBE_MAX_ATTEMPTS", c.TranscribeMaxAttempts, &errs)
	c.SummaryModel = getEnv("SUMMARY_MODEL", c.SummaryModel)
	c.SummaryMaxAttempts = getInt("SUMMARY_MAX_ATTEMPTS", c.SummaryMaxAttempts, &errs)
	c.SummaryBaseDelay = getDuration("SUMMARY_BASE_DELAY", c.SummaryBaseDelay, &errs)
	c.SummaryBackoff = getEnv("SUMMARY_BACKOFF", c.SummaryBackoff)

	c.CompletionProvider = strings.ToLower(getEnv("COMPLETION_PROVIDER", c.CompletionProvider))
	c.CompletionAPIKey = getEnv("COMPLETION_API_KEY", c.CompletionAPIKey)
	c.CompletionBaseURL = getEnv("COMPLETION_BASE_URL", c.CompletionBaseURL)
	c.CompletionModel = getEnv("COMPLETION_MODEL", c.CompletionModel)
	if c.CompletionAPIKey == "" {
		switch c.CompletionProvider {
		case "groq":
			c.CompletionAPIKey = os.Getenv("GROQ_API_KEY")
		case "gemini":
			c.CompletionAPIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			c.CompletionAPIKey = c.OpenAIAPIKey
		}
	}

	return errors.Join(errs...)
}

// Validate checks required secrets and the timeout ordering
// FetchTimeout < RequestBudget < ServerWriteTimeout.
func (c *Config) Validate() error {
	var errs []error

	if c.HuggingFaceAPIKey == "" {
		errs = append(errs, errors.New("HUGGINGFACE_API_KEY is not configured"))
	}

	switch c.ASREngine {
	case "huggingface":
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when ASR_ENGINE=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ASR_ENGINE %q", c.ASREngine))
	}

	switch c.CompletionProvider {
	case "groq", "openai", "gemini":
		if c.CompletionAPIKey == "" {
			errs = append(errs, fmt.Errorf("no API key configured for completion provider %s", c.CompletionProvider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider))
	}

	switch c.TranscodeStrategy {
	case "auto", "stream", "file":
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSCODE_STRATEGY %q", c.TranscodeStrategy))
	}

	if c.FetchTimeout <= 0 || c.RequestBudget <= 0 || c.ServerWriteTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	} else {
		if c.RequestBudget >= c.ServerWriteTimeout {
			errs = append(errs, fmt.Errorf("REQUEST_BUDGET (%s) must be below SERVER_WRITE_TIMEOUT (%s)", c.RequestBudget, c.ServerWriteTimeout))
		}
		if c.FetchTimeout >= c.RequestBudget {
			errs = append(errs, fmt.Errorf("FETCH_TIMEOUT (%s) must be below REQUEST_BUDGET (%s)", c.FetchTimeout, c.RequestBudget))
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.SummaryMaxAttempts < 1 || c.TranscribeMaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.MaxVideoBytes <= 0 || c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("size limits must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getInt64(key string, fallback int64, errs *[]error) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
