package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines nexus configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Merge     MergeConfig     `yaml:"merge"`
	Watch     WatchConfig     `yaml:"watch"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

type DBConfig struct {
	// Driver is "sqlite" or "json".
	Driver string `yaml:"driver"`
	// Path defaults per driver when empty.
	Path string `yaml:"path"`
}

// ResolvedPath returns Path or the driver's default location.
func (c DBConfig) ResolvedPath() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Driver == DriverJSON {
		return "data/nexus_state.json"
	}
	return "data/nexus.db"
}

type StoreConfig struct {
	// LockPath enables a cross-process lock file when set.
	LockPath    string        `yaml:"lock_path"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type LLMConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	MaxTokens  int           `yaml:"max_tokens"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

type IngestConfig struct {
	Dir         string        `yaml:"dir"`
	Concurrency int           `yaml:"concurrency"`
	CallDelay   time.Duration `yaml:"call_delay"`
}

type MergeConfig struct {
	RecordUnchanged bool `yaml:"record_unchanged"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Driver: DriverSQLite,
		},
		Store: StoreConfig{
			LockTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 8192,
		},
		Ingest: IngestConfig{
			Dir:         "data/sample-inputs",
			Concurrency: 1,
			CallDelay:   3 * time.Second,
		},
		Merge: MergeConfig{
			RecordUnchanged: true,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("NEXUS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverJSON:
	default:
		return fmt.Errorf("invalid db driver %q", c.DB.Driver)
	}
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("ingest concurrency must be at least 1, got %d", c.Ingest.Concurrency)
	}
	if c.Ingest.CallDelay < 0 || c.Watch.Debounce < 0 || c.Store.LockTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("NEXUS_SERVER_HOST", &cfg.Server.Host)
	setString("NEXUS_TRANSPORT_MODE", &cfg.Transport.Mode)
	setString("NEXUS_DB_DRIVER", &cfg.DB.Driver)
	setString("NEXUS_DB_PATH", &cfg.DB.Path)
	setString("NEXUS_STORE_LOCK_PATH", &cfg.Store.LockPath)
	setString("NEXUS_LOG_LEVEL", &cfg.Log.Level)
	setString("NEXUS_LOG_PATH", &cfg.Log.Path)
	setString("NEXUS_LLM_API_KEY", &cfg.LLM.APIKey)
	setString("NEXUS_LLM_MODEL", &cfg.LLM.Model)
	setString("NEXUS_INGEST_DIR", &cfg.Ingest.Dir)

	for key, dst := range map[string]*int{
		"NEXUS_SERVER_PORT":        &cfg.Server.Port,
		"NEXUS_LLM_MAX_TOKENS":     &cfg.LLM.MaxTokens,
		"NEXUS_LLM_MAX_RETRIES":    &cfg.LLM.MaxRetries,
		"NEXUS_INGEST_CONCURRENCY": &cfg.Ingest.Concurrency,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*time.Duration{
		"NEXUS_STORE_LOCK_TIMEOUT": &cfg.Store.LockTimeout,
		"NEXUS_LLM_TIMEOUT":        &cfg.LLM.Timeout,
		"NEXUS_INGEST_CALL_DELAY":  &cfg.Ingest.CallDelay,
		"NEXUS_WATCH_DEBOUNCE":     &cfg.Watch.Debounce,
	} {
		if err := setDuration(key, dst); err != nil {
			return err
		}
	}
	if v := os.Getenv("NEXUS_MERGE_RECORD_UNCHANGED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid NEXUS_MERGE_RECORD_UNCHANGED: %w", err)
		}
		cfg.Merge.RecordUnchanged = b
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
