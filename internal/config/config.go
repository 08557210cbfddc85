// Package config loads glowcheck settings from env files, an optional TOML
// file and GLOWCHECK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	defaultHost          = ""
	defaultPort          = 8080
	defaultStoreEngine   = "sqlite"
	defaultVisionURL     = "https://vision.googleapis.com/v1/images:annotate"
	defaultLLMURL        = "https://toolkit.rork.com/text/llm/"
	defaultTimeoutSecs   = 20
	defaultCOSRegion     = "ap-hongkong"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultMaxConcurrent = 1
)

// EnvFiles are loaded before anything else; variables already set win.
var EnvFiles = []string{".env", "glowcheck.env"}

type Config struct {
	HTTP     HTTPConfig     `toml:"http"`
	Store    StoreConfig    `toml:"store"`
	Vision   VisionConfig   `toml:"vision"`
	LLM      LLMConfig      `toml:"llm"`
	COS      COSConfig      `toml:"cos"`
	Logging  LoggingConfig  `toml:"logging"`
	Analysis AnalysisConfig `toml:"analysis"`
}

type HTTPConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StoreConfig struct {
	Engine string `toml:"engine"`
	Path   string `toml:"path"`
}

type VisionConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type LLMConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type COSConfig struct {
	SecretID     string `toml:"secret_id"`
	SecretKey    string `toml:"secret_key"`
	Region       string `toml:"region"`
	BucketName   string `toml:"bucket"`
	PublicDomain string `toml:"public_domain"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"` // text|json
	IncludeCaller bool   `toml:"include_caller"`
}

type AnalysisConfig struct {
	MaxConcurrent   int  `toml:"max_concurrent"`
	AllowLocalFiles bool `toml:"allow_local_files"`
}

func Default() Config {
	return Config{
		HTTP:  HTTPConfig{Host: defaultHost, Port: defaultPort},
		Store: StoreConfig{Engine: defaultStoreEngine},
		Vision: VisionConfig{
			URL:            defaultVisionURL,
			TimeoutSeconds: defaultTimeoutSecs,
		},
		LLM: LLMConfig{
			URL:            defaultLLMURL,
			TimeoutSeconds: defaultTimeoutSecs,
		},
		COS:      COSConfig{Region: defaultCOSRegion},
		Logging:  LoggingConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Analysis: AnalysisConfig{MaxConcurrent: defaultMaxConcurrent},
	}
}

// Load builds the configuration. An empty path falls back to GLOWCHECK_CONFIG;
// a missing TOML file is not an error.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(EnvFiles...); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("GLOWCHECK_CONFIG")
	}
	if strings.TrimSpace(path) != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Addr() string {
	if c.HTTP.Host == "" {
		return fmt.Sprintf(":%d", c.HTTP.Port)
	}
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func (c VisionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Host = strings.TrimSpace(envOrDefault("GLOWCHECK_HOST", cfg.HTTP.Host))
	cfg.HTTP.Port = parseEnvInt("GLOWCHECK_PORT", cfg.HTTP.Port)

	cfg.Store.Engine = strings.ToLower(envOrDefault("GLOWCHECK_STORE", cfg.Store.Engine))
	cfg.Store.Path = envOrDefault("GLOWCHECK_DATA_FILE", cfg.Store.Path)

	cfg.Vision.URL = envOrDefault("GLOWCHECK_VISION_API_URL", cfg.Vision.URL)
	cfg.Vision.APIKey = strings.TrimSpace(envOrDefault("GLOWCHECK_VISION_API_KEY", cfg.Vision.APIKey))
	cfg.Vision.TimeoutSeconds = parseEnvInt("GLOWCHECK_VISION_TIMEOUT_SECONDS", cfg.Vision.TimeoutSeconds)

	cfg.LLM.URL = envOrDefault("GLOWCHECK_LLM_API_URL", cfg.LLM.URL)
	cfg.LLM.APIKey = strings.TrimSpace(envOrDefault("GLOWCHECK_LLM_API_KEY", cfg.LLM.APIKey))
	cfg.LLM.Model = envOrDefault("GLOWCHECK_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.TimeoutSeconds = parseEnvInt("GLOWCHECK_LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.COS.SecretID = envOrDefault("GLOWCHECK_COS_SECRET_ID", cfg.COS.SecretID)
	cfg.COS.SecretKey = envOrDefault("GLOWCHECK_COS_SECRET_KEY", cfg.COS.SecretKey)
	cfg.COS.Region = envOrDefault("GLOWCHECK_COS_REGION", cfg.COS.Region)
	cfg.COS.BucketName = envOrDefault("GLOWCHECK_COS_BUCKET_NAME", cfg.COS.BucketName)
	cfg.COS.PublicDomain = envOrDefault("GLOWCHECK_COS_PUBLIC_DOMAIN", cfg.COS.PublicDomain)

	cfg.Logging.Level = envOrDefault("GLOWCHECK_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = envOrDefault("GLOWCHECK_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseEnvBool("GLOWCHECK_LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Analysis.MaxConcurrent = parseEnvInt("GLOWCHECK_MAX_CONCURRENT_ANALYSES", cfg.Analysis.MaxConcurrent)
	cfg.Analysis.AllowLocalFiles = parseEnvBool("GLOWCHECK_ALLOW_LOCAL_FILES", cfg.Analysis.AllowLocalFiles)
}

func (c Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	switch c.Store.Engine {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unsupported store engine %q", c.Store.Engine)
	}
	if c.Analysis.MaxConcurrent <= 0 {
		return fmt.Errorf("analysis.max_concurrent must be positive, got %d", c.Analysis.MaxConcurrent)
	}
	return nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
