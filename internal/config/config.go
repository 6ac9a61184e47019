package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port           string   `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RequestTimeout int      `yaml:"request_timeout_seconds"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type Lexicon struct {
	Dir    string `yaml:"dir"`
	Locale string `yaml:"locale"`
}

type Cache struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type RateLimit struct {
	IPPerMinute       int `yaml:"ip_per_minute"`
	AnalysisPerMinute int `yaml:"analysis_per_minute"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Events configures the AMQP publisher. An empty URL disables publishing.
type Events struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type Privacy struct {
	RetentionDays int `yaml:"retention_days"`
}

// Config is the complete service configuration
type Config struct {
	Server    Server           `yaml:"server"`
	Storage   Storage          `yaml:"storage"`
	LogLevel  string           `yaml:"log_level"`
	Lexicon   Lexicon          `yaml:"lexicon"`
	Weights   analysis.Weights `yaml:"weights"`
	Cache     Cache            `yaml:"cache"`
	RateLimit RateLimit        `yaml:"rate_limit"`
	Redis     Redis            `yaml:"redis"`
	Events    Events           `yaml:"events"`
	Privacy   Privacy          `yaml:"privacy"`
}

// Default returns the configuration used when no file or env overrides exist
func Default() *Config {
	return &Config{
		Server: Server{
			Port:           "8080",
			GinMode:        "release",
			CORSOrigins:    []string{"http://localhost:5173"},
			RequestTimeout: 30,
		},
		Storage:  Storage{DataDir: "./data"},
		LogLevel: "info",
		Lexicon:  Lexicon{Dir: "./lexicons", Locale: "tr"},
		Weights:  analysis.DefaultWeights(),
		Cache:    Cache{TTLSeconds: 900},
		RateLimit: RateLimit{
			IPPerMinute:       120,
			AnalysisPerMinute: 30,
		},
		Events:  Events{Exchange: "inconsistency.events"},
		Privacy: Privacy{RetentionDays: 30},
	}
}

// CandidatePaths lists the YAML files Load tries, in order
func CandidatePaths() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}

	paths := []string{}
	if explicit := os.Getenv("CONFIG_FILE"); explicit != "" {
		paths = append(paths, explicit)
	}
	return append(paths,
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("config", "config.yaml"),
	)
}

// Load reads .env, the first YAML file found among CandidatePaths, then
// environment overrides, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}
	return LoadFrom(CandidatePaths()...)
}

// LoadFrom is Load without the .env step. A missing file is skipped; a
// file that exists but does not parse is an error.
func LoadFrom(paths ...string) (*Config, error) {
	cfg := Default()

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, apperrors.NewConfigurationError("failed to read "+p, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigurationError("failed to parse "+p, err)
		}
		slog.Info("Loaded configuration file", "path", p)
		break
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.GinMode = getEnvOrDefault("GIN_MODE", c.Server.GinMode)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	c.Storage.DataDir = getEnvOrDefault("DATA_DIR", c.Storage.DataDir)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.Lexicon.Dir = getEnvOrDefault("LEXICON_DIR", c.Lexicon.Dir)
	c.Lexicon.Locale = getEnvOrDefault("LOCALE", c.Lexicon.Locale)
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Events.AMQPURL = getEnvOrDefault("AMQP_URL", c.Events.AMQPURL)
	c.Events.Exchange = getEnvOrDefault("AMQP_EXCHANGE", c.Events.Exchange)

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"CACHE_TTL_SECONDS", &c.Cache.TTLSeconds},
		{"RATE_LIMIT_IP_PER_MINUTE", &c.RateLimit.IPPerMinute},
		{"RATE_LIMIT_ANALYSIS_PER_MINUTE", &c.RateLimit.AnalysisPerMinute},
		{"RETENTION_DAYS", &c.Privacy.RetentionDays},
		{"REQUEST_TIMEOUT_SECONDS", &c.Server.RequestTimeout},
	}
	for _, e := range ints {
		raw := os.Getenv(e.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("%s must be an integer", e.key), err)
		}
		*e.dst = v
	}
	return nil
}

// Validate reports the first invalid setting as a configuration error
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return apperrors.NewConfigurationError("server port is required", nil)
	}
	if c.Storage.DataDir == "" {
		return apperrors.NewConfigurationError("data dir is required", nil)
	}
	if c.Lexicon.Locale == "" {
		return apperrors.NewConfigurationError("lexicon locale is required", nil)
	}
	if err := c.Weights.Validate(); err != nil {
		return apperrors.NewConfigurationError("invalid scoring weights", err)
	}
	if c.RateLimit.IPPerMinute <= 0 || c.RateLimit.AnalysisPerMinute <= 0 {
		return apperrors.NewConfigurationError("rate limits must be positive", nil)
	}
	// a zero TTL would keep redis score entries forever
	if c.Cache.TTLSeconds <= 0 {
		return apperrors.NewConfigurationError("cache ttl_seconds must be positive", nil)
	}
	if c.Privacy.RetentionDays < 0 || c.Server.RequestTimeout < 0 {
		return apperrors.NewConfigurationError("durations must not be negative", nil)
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
