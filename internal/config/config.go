package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

const envPrefix = "env:"

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	JWTTTLMinutes  int              `json:"jwt_ttl_minutes"`
	Admin          AdminConfig      `json:"admin"`
	LogConfig      logger.LogConfig `json:"log_config"`
	DocStore       PluginConfig     `json:"doc_store"`
	Index          IndexConfig      `json:"index"`
	Extract        ExtractConfig    `json:"extract"`
	AI             AIConfig         `json:"ai"`
	FileStore      PluginConfig     `json:"file_store"`
	RateLimit      RateLimitConfig  `json:"rate_limit"`
	UploadMaxBytes int64            `json:"upload_max_bytes"`
	Audit          AuditConfig      `json:"audit"`
	CORSAllowlist  []string         `json:"cors_allowlist"`
}

// PluginConfig selects a registered implementation by name and carries its raw arguments.
type PluginConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AdminConfig struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type IndexConfig struct {
	Dimension int          `json:"dimension"`
	Journal   PluginConfig `json:"journal"`
}

type ExtractConfig struct {
	PDF   PluginConfig `json:"pdf"`
	Image PluginConfig `json:"image"`
}

type ProviderConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type EmbedCacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

type AIConfig struct {
	Providers     map[string]ProviderConfig `json:"providers"`
	Embed         []ModelRef                `json:"embed"`
	Answer        []ModelRef                `json:"answer"`
	Entity        []ModelRef                `json:"entity"`
	Timeout       int                       `json:"timeout"`
	MaxInputChars int                       `json:"max_input_chars"`
	EmbedCache    EmbedCacheConfig          `json:"embed_cache"`
}

type RateLimitConfig struct {
	UploadPerMinute int `json:"upload_per_minute"`
	AskPerMinute    int `json:"ask_per_minute"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	cfg.JWTSecret = Resolve(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Admin.Username == "" || cfg.Admin.PasswordHash == "" {
		return fmt.Errorf("admin.username/admin.password_hash are required")
	}
	if cfg.JWTTTLMinutes == 0 {
		cfg.JWTTTLMinutes = 30
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.DocStore.Type == "" {
		cfg.DocStore.Type = "memory"
	}
	if cfg.Index.Dimension < 0 {
		return fmt.Errorf("index.dimension must not be negative")
	}
	if cfg.Index.Journal.Type == "" {
		cfg.Index.Journal.Type = "memory"
	}
	if cfg.Extract.PDF.Type == "" {
		cfg.Extract.PDF.Type = "pdftotext"
	}
	if cfg.Extract.Image.Type == "" {
		cfg.Extract.Image.Type = "tesseract"
	}
	if len(cfg.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers is required")
	}
	for name, refs := range map[string][]ModelRef{"embed": cfg.AI.Embed, "answer": cfg.AI.Answer, "entity": cfg.AI.Entity} {
		if len(refs) == 0 {
			return fmt.Errorf("ai.%s requires at least one model", name)
		}
		for _, ref := range refs {
			if _, ok := cfg.AI.Providers[ref.Provider]; !ok {
				return fmt.Errorf("ai.%s references unknown provider: %s", name, ref.Provider)
			}
		}
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.RateLimit.UploadPerMinute == 0 {
		cfg.RateLimit.UploadPerMinute = 5
	}
	if cfg.RateLimit.AskPerMinute == 0 {
		cfg.RateLimit.AskPerMinute = 10
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 20 * 1024 * 1024
	}
	if cfg.Audit.Spec == "" {
		cfg.Audit.Spec = "*/30 * * * *"
	}
	return nil
}

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Resolve expands values of the form "env:NAME" from the environment.
func Resolve(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, envPrefix) {
		return value
	}
	return strings.TrimSpace(os.Getenv(strings.TrimPrefix(value, envPrefix)))
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}
