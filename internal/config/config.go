// Package config loads settings from defaults, an optional financeiro.toml,
// an optional .env file and FINANCEIRO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/store"
)

const EnvPrefix = "FINANCEIRO"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Store    store.Config   `mapstructure:"store"`
	AI       AIConfig       `mapstructure:"ai"`
	BigQuery BigQueryConfig `mapstructure:"bigquery"`
	GCP      GCPConfig      `mapstructure:"gcp"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// AIConfig selects the chat model. When APIKey is empty the provider's usual
// variable (GEMINI_API_KEY, OPENROUTER_API_KEY) is read.
type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	MaxRounds    int           `mapstructure:"max_rounds"`
	HistoryTurns int           `mapstructure:"history_turns"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
}

type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
	Table   string `mapstructure:"table"`
}

type GCPConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type WorkerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type DefaultsConfig struct {
	SeedAccounts bool `mapstructure:"seed_accounts"`
}

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("store.backend", string(store.BackendFile))
	v.SetDefault("store.path", filepath.Join("data", "financeiro.json"))
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.object", domain.StorageKey+".json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.key", domain.StorageKey)
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.max_rounds", 5)
	v.SetDefault("ai.history_turns", 10)
	v.SetDefault("ai.call_timeout", 60*time.Second)
	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "financeiro")
	v.SetDefault("bigquery.table", "transactions")
	v.SetDefault("gcp.credentials_file", "")
	v.SetDefault("worker.interval", time.Hour)
	v.SetDefault("defaults.seed_accounts", true)
}

// Load reads the configuration. path names an explicit config file; when it
// is empty FINANCEIRO_CONFIG is used, then financeiro.toml in the working
// directory or ~/.config/financeiro.
func Load(path string) (Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("financeiro")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "financeiro"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("Load: read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("Load: unmarshal config: %w", err)
	}
	c.Store.CredentialsFile = c.GCP.CredentialsFile
	if c.AI.APIKey == "" {
		c.AI.APIKey = providerKey(c.AI.Provider)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return c, nil
}

func providerKey(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks the values that have a fixed set of choices.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendFile, store.BackendGCS, store.BackendPostgres, store.BackendSQLite:
	default:
		return fmt.Errorf("store.backend %q: %w", c.Store.Backend, store.ErrUnknownBackend)
	}
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	if c.AI.MaxRounds < 1 {
		return fmt.Errorf("ai.max_rounds must be at least 1, got %d", c.AI.MaxRounds)
	}
	if c.Worker.Interval <= 0 {
		return fmt.Errorf("worker.interval must be positive, got %s", c.Worker.Interval)
	}
	return nil
}
