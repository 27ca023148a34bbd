// Package config loads apidocs settings from an optional YAML file,
// APIDOCS_* environment variables and built-in defaults, in that order of
// precedence from lowest to highest: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const envPrefix = "APIDOCS"

type GlossaryConfig struct {
	Path string // empty uses the embedded glossary
}

type CatalogConfig struct {
	SchemaPath string
	ConfigPath string
}

type DBConfig struct {
	Path string
}

type ServerConfig struct {
	Addr           string
	PlaygroundPath string
}

// ContextConfig sizes the schema context sent to the model.
type ContextConfig struct {
	MaxChars           int
	OperationMargin    int
	TypesSectionMargin int
	TypeMargin         int
}

type PlaygroundConfig struct {
	Endpoint     string // empty uses the catalog's base URL
	TimeoutMs    int
	HistoryLimit int
	// AllowedHosts are extra hosts the playground may call besides the
	// GraphQL endpoint's own.
	AllowedHosts []string
}

type LogConfig struct {
	Level string
}

// Config is the fully resolved application configuration.
type Config struct {
	File       string // config file that was read, if any
	Glossary   GlossaryConfig
	Catalog    CatalogConfig
	DB         DBConfig
	Server     ServerConfig
	Context    ContextConfig
	LLM        llm.LLMConfig
	Playground PlaygroundConfig
	Log        LogConfig
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("glossary.path", "")
	v.SetDefault("catalog.schema_path", "")
	v.SetDefault("catalog.config_path", "")
	v.SetDefault("db.path", defaultDBPath())
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.playground_path", "/playground")
	v.SetDefault("context.max_chars", intelligence.DefaultMaxChars)
	v.SetDefault("context.operation_margin", intelligence.DefaultOperationMargin)
	v.SetDefault("context.types_section_margin", intelligence.DefaultTypesSectionMargin)
	v.SetDefault("context.type_margin", intelligence.DefaultTypeMargin)
	v.SetDefault("llm.enabled", llmDefaults.Enabled)
	v.SetDefault("llm.provider", string(llmDefaults.Provider))
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", llmDefaults.Model)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout_ms", llmDefaults.TimeoutMs)
	v.SetDefault("llm.chat_timeout_ms", 0)
	v.SetDefault("llm.title_timeout_ms", 0)
	v.SetDefault("llm.max_retries", llmDefaults.MaxRetries)
	v.SetDefault("llm.retry_backoff_ms", llmDefaults.RetryBackoffMs)
	v.SetDefault("llm.log_calls", llmDefaults.LogCalls)
	v.SetDefault("playground.endpoint", "")
	v.SetDefault("playground.timeout_ms", 30000)
	v.SetDefault("playground.history_limit", 50)
	v.SetDefault("playground.allowed_hosts", []string{})
	v.SetDefault("log.level", "info")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".apidocs", "apidocs.db")
	}
	return filepath.Join(home, ".apidocs", "apidocs.db")
}

// Load reads configuration. An explicit file must exist; otherwise
// apidocs.yaml is searched in the working directory and $HOME/.apidocs and
// may be absent.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY is honored so the usual variable works unprefixed.
	_ = v.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("apidocs")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".apidocs"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		File:     v.ConfigFileUsed(),
		Glossary: GlossaryConfig{Path: v.GetString("glossary.path")},
		Catalog: CatalogConfig{
			SchemaPath: v.GetString("catalog.schema_path"),
			ConfigPath: v.GetString("catalog.config_path"),
		},
		DB: DBConfig{Path: v.GetString("db.path")},
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			PlaygroundPath: v.GetString("server.playground_path"),
		},
		Context: ContextConfig{
			MaxChars:           v.GetInt("context.max_chars"),
			OperationMargin:    v.GetInt("context.operation_margin"),
			TypesSectionMargin: v.GetInt("context.types_section_margin"),
			TypeMargin:         v.GetInt("context.type_margin"),
		},
		Playground: PlaygroundConfig{
			Endpoint:     v.GetString("playground.endpoint"),
			TimeoutMs:    v.GetInt("playground.timeout_ms"),
			HistoryLimit: v.GetInt("playground.history_limit"),
			AllowedHosts: v.GetStringSlice("playground.allowed_hosts"),
		},
		Log: LogConfig{Level: v.GetString("log.level")},
	}

	cfg.LLM = llm.DefaultConfig()
	cfg.LLM.Enabled = v.GetBool("llm.enabled")
	cfg.LLM.Provider = llm.Provider(strings.ToLower(v.GetString("llm.provider")))
	cfg.LLM.Endpoint = v.GetString("llm.endpoint")
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.LLM.APIKey = v.GetString("llm.api_key")
	cfg.LLM.TimeoutMs = v.GetInt("llm.timeout_ms")
	cfg.LLM.MaxRetries = v.GetInt("llm.max_retries")
	cfg.LLM.RetryBackoffMs = v.GetInt("llm.retry_backoff_ms")
	cfg.LLM.LogCalls = v.GetBool("llm.log_calls")
	cfg.LLM.SetTaskTimeout(llm.TaskChat, v.GetInt("llm.chat_timeout_ms"))
	cfg.LLM.SetTaskTimeout(llm.TaskTitle, v.GetInt("llm.title_timeout_ms"))
	if cfg.LLM.Endpoint == "" && cfg.LLM.Provider == llm.ProviderOllama {
		cfg.LLM.Endpoint = llm.DefaultConfig().Endpoint
	}

	return cfg
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("%w: llm.provider %q must be ollama or openai", ErrInvalid, c.LLM.Provider))
	}
	if c.LLM.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: llm.timeout_ms must be positive", ErrInvalid))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w: llm.max_retries must not be negative", ErrInvalid))
	}
	if c.LLM.RetryBackoffMs < 0 {
		errs = append(errs, fmt.Errorf("%w: llm.retry_backoff_ms must not be negative", ErrInvalid))
	}
	if c.Context.MaxChars < 0 {
		errs = append(errs, fmt.Errorf("%w: context.max_chars must not be negative", ErrInvalid))
	}
	if c.Playground.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: playground.history_limit must not be negative", ErrInvalid))
	}
	if (c.Catalog.SchemaPath == "") != (c.Catalog.ConfigPath == "") {
		errs = append(errs, fmt.Errorf("%w: catalog.schema_path and catalog.config_path must be set together", ErrInvalid))
	}
	if !strings.HasPrefix(c.Server.PlaygroundPath, "/") {
		errs = append(errs, fmt.Errorf("%w: server.playground_path must start with /", ErrInvalid))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ContextBuilder returns a builder sized by c.Context.
func (c *Config) ContextBuilder(cat intelligence.Catalog, logger *slog.Logger) *intelligence.ContextBuilder {
	b := intelligence.NewContextBuilder(cat, logger)
	b.OperationMargin = c.Context.OperationMargin
	b.TypesSectionMargin = c.Context.TypesSectionMargin
	b.TypeMargin = c.Context.TypeMargin
	return b
}

// NewLogger returns a text logger on w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return level, nil
}
