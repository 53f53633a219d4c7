// Package config handles focuswatch configuration
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
)

// Defaults
const (
	DefaultInterval    = 30 * time.Second
	DefaultModelName   = "llava:7b"
	DefaultPrompt      = "Is there ANY social media (e.g. twitter, instagram, facebook, youtube, profiles, etc.) use in this screenshot? Yes or no?"
	DefaultTemperature = 0.0
	DefaultBufferSize  = 5
	DefaultBackend     = BackendOllama
	DefaultCaptureDir  = "screen_captures"
)

// Inference backends
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

type Config struct {
	Interval         time.Duration
	ModelName        string
	Prompt           string
	Temperature      float64
	BufferSize       int
	Options          map[string]any // extra decoding options forwarded to the model
	Backend          string
	OllamaHost       string // empty leaves OLLAMA_HOST resolution to the ollama client
	OpenAIBaseURL    string
	OpenAIAPIKey     string
	CaptureDir       string
	StatusAddr       string        // empty disables the status server
	InferenceTimeout time.Duration // zero means no deadline
	LogLevel         slog.Level
}

// fileConfig mirrors the YAML layout; pointers distinguish absent keys.
type fileConfig struct {
	Interval         *int           `yaml:"interval"`
	ModelName        *string        `yaml:"model_name"`
	Prompt           *string        `yaml:"prompt"`
	Temperature      *float64       `yaml:"temperature"`
	BufferSize       *int           `yaml:"buffer_size"`
	Options          map[string]any `yaml:"options"`
	Backend          *string        `yaml:"backend"`
	OllamaHost       *string        `yaml:"ollama_host"`
	OpenAIBaseURL    *string        `yaml:"openai_base_url"`
	OpenAIAPIKey     *string        `yaml:"openai_api_key"`
	CaptureDir       *string        `yaml:"capture_dir"`
	StatusAddr       *string        `yaml:"status_addr"`
	InferenceTimeout *int           `yaml:"inference_timeout"`
	LogLevel         *string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Interval:    DefaultInterval,
		ModelName:   DefaultModelName,
		Prompt:      DefaultPrompt,
		Temperature: DefaultTemperature,
		BufferSize:  DefaultBufferSize,
		Options:     map[string]any{},
		Backend:     DefaultBackend,
		CaptureDir:  defaultCaptureDir(),
		LogLevel:    slog.LevelInfo,
	}
}

// Load returns defaults overridden by the environment.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile returns defaults overridden by the YAML file at path, then by the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfig, "read config file %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfig, "parse config file %s", path)
	}

	cfg := Default()
	cfg.applyFile(&fc)
	cfg.applyEnv()
	return cfg, nil
}

// ModelOptions returns the options bag sent to the model, temperature included.
func (c *Config) ModelOptions() map[string]any {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	opts["temperature"] = c.Temperature
	return opts
}

// Validate rejects configurations the capture loop cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Interval < time.Second:
		return apperrors.Newf(apperrors.CodeConfig, "interval must be at least 1s, got %v", c.Interval)
	case c.BufferSize < 1:
		return apperrors.Newf(apperrors.CodeConfig, "buffer size must be at least 1, got %d", c.BufferSize)
	case strings.TrimSpace(c.ModelName) == "":
		return apperrors.New(apperrors.CodeConfig, "model name must not be empty")
	case strings.TrimSpace(c.Prompt) == "":
		return apperrors.New(apperrors.CodeConfig, "prompt must not be empty")
	case c.Backend != BackendOllama && c.Backend != BackendOpenAI:
		return apperrors.Newf(apperrors.CodeConfig, "unknown inference backend %q", c.Backend)
	case c.InferenceTimeout < 0:
		return apperrors.Newf(apperrors.CodeConfig, "inference timeout must not be negative, got %v", c.InferenceTimeout)
	case c.CaptureDir == "":
		return apperrors.New(apperrors.CodeConfig, "capture directory must not be empty")
	}
	return nil
}

func (c *Config) applyFile(fc *fileConfig) {
	if fc.Interval != nil {
		c.Interval = time.Duration(*fc.Interval) * time.Second
	}
	setString(&c.ModelName, fc.ModelName)
	setString(&c.Prompt, fc.Prompt)
	if fc.Temperature != nil {
		c.Temperature = *fc.Temperature
	}
	if fc.BufferSize != nil {
		c.BufferSize = *fc.BufferSize
	}
	for k, v := range fc.Options {
		c.Options[k] = v
	}
	setString(&c.Backend, fc.Backend)
	setString(&c.OllamaHost, fc.OllamaHost)
	setString(&c.OpenAIBaseURL, fc.OpenAIBaseURL)
	setString(&c.OpenAIAPIKey, fc.OpenAIAPIKey)
	setString(&c.CaptureDir, fc.CaptureDir)
	setString(&c.StatusAddr, fc.StatusAddr)
	if fc.InferenceTimeout != nil {
		c.InferenceTimeout = time.Duration(*fc.InferenceTimeout) * time.Second
	}
	if fc.LogLevel != nil {
		c.LogLevel = parseLevel(*fc.LogLevel, c.LogLevel)
	}
}

func (c *Config) applyEnv() {
	c.Interval = time.Duration(getEnvInt("CAPTURE_INTERVAL", int(c.Interval/time.Second))) * time.Second
	c.ModelName = getEnv("MODEL_NAME", c.ModelName)
	c.Prompt = getEnv("PROMPT", c.Prompt)
	c.Temperature = getEnvFloat("TEMPERATURE", c.Temperature)
	c.BufferSize = getEnvInt("BUFFER_SIZE", c.BufferSize)
	c.Backend = getEnv("INFERENCE_BACKEND", c.Backend)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.CaptureDir = getEnv("CAPTURE_DIR", c.CaptureDir)
	c.StatusAddr = getEnv("STATUS_ADDR", c.StatusAddr)
	c.InferenceTimeout = time.Duration(getEnvInt("INFERENCE_TIMEOUT", int(c.InferenceTimeout/time.Second))) * time.Second
	c.LogLevel = parseLevel(getEnv("LOG_LEVEL", ""), c.LogLevel)
}

// defaultCaptureDir places captures next to the executable.
func defaultCaptureDir() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultCaptureDir
	}
	return filepath.Join(filepath.Dir(exe), DefaultCaptureDir)
}

func parseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
