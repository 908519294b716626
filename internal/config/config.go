package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName    = "longbox"
	envPrefix  = "LONGBOX"
	configName = "config"
	configType = "yaml"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`

	v    *viper.Viper
	path string // file the config was read from or will be written to
}

// ServerConfig holds library server configuration
type ServerConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"` // display only
	Token    string `mapstructure:"token"`
}

// SyncConfig controls batch sizes and the polling schedule
type SyncConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`      // comics per request
	TimeoutSeconds int           `mapstructure:"timeout_seconds"` // server hold time per request
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // re-check period once caught up
	PollJitter     float64       `mapstructure:"poll_jitter"`     // 0..1 fraction of PollInterval
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`     // cap on retry delay after failures
}

// CacheConfig holds local persistence configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // empty keeps the library in memory only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the optional Prometheus listener
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultIndex string `mapstructure:"default_index"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			BatchSize:      100,
			TimeoutSeconds: 30,
			PollInterval:   30 * time.Second,
			PollJitter:     0.2,
			MaxBackoff:     2 * time.Minute,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		UI: UIConfig{
			DefaultIndex: "series",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	// Every key needs a default so AutomaticEnv can override it on Unmarshal
	v.SetDefault("server.url", defaults.Server.URL)
	v.SetDefault("server.username", defaults.Server.Username)
	v.SetDefault("server.token", defaults.Server.Token)
	v.SetDefault("sync.batch_size", defaults.Sync.BatchSize)
	v.SetDefault("sync.timeout_seconds", defaults.Sync.TimeoutSeconds)
	v.SetDefault("sync.poll_interval", defaults.Sync.PollInterval)
	v.SetDefault("sync.poll_jitter", defaults.Sync.PollJitter)
	v.SetDefault("sync.max_backoff", defaults.Sync.MaxBackoff)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("metrics.listen", defaults.Metrics.Listen)
	v.SetDefault("ui.default_index", defaults.UI.DefaultIndex)

	// Environment variable overrides, e.g. LONGBOX_SYNC_BATCH_SIZE
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path, or from the default locations when
// path is empty. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.v = v
	cfg.path = v.ConfigFileUsed()
	if cfg.path == "" {
		cfg.path = path
	}
	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with defaults
func (c *Config) normalize() {
	d := DefaultConfig()
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = d.Sync.BatchSize
	}
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = d.Sync.TimeoutSeconds
	}
	if c.Sync.PollInterval <= 0 {
		c.Sync.PollInterval = d.Sync.PollInterval
	}
	if c.Sync.PollJitter < 0 || c.Sync.PollJitter > 1 {
		c.Sync.PollJitter = d.Sync.PollJitter
	}
	if c.Sync.MaxBackoff <= 0 {
		c.Sync.MaxBackoff = d.Sync.MaxBackoff
	}
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
}

// Path returns the config file in use
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	return filepath.Join(defaultConfigPath(), configName+"."+configType)
}

// Save writes the current configuration to Path
func (c *Config) Save() error {
	v := c.v
	if v == nil {
		v = newViper(DefaultConfig())
		c.v = v
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", c.Server.URL)
	v.Set("server.username", c.Server.Username)
	v.Set("server.token", c.Server.Token)

	v.Set("sync.batch_size", c.Sync.BatchSize)
	v.Set("sync.timeout_seconds", c.Sync.TimeoutSeconds)
	v.Set("sync.poll_interval", c.Sync.PollInterval.String())
	v.Set("sync.poll_jitter", c.Sync.PollJitter)
	v.Set("sync.max_backoff", c.Sync.MaxBackoff.String())

	v.Set("cache.dir", c.Cache.Dir)
	v.Set("logging.file", c.Logging.File)
	v.Set("logging.level", c.Logging.Level)
	v.Set("metrics.listen", c.Metrics.Listen)
	v.Set("ui.default_index", c.UI.DefaultIndex)

	return c.write()
}

// ClearServerConfig removes the server URL and credentials while preserving
// other settings
func (c *Config) ClearServerConfig() error {
	c.Server = ServerConfig{}
	return c.Save()
}

func (c *Config) write() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := c.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.path = path
	return nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// ClearCache removes all cached library data
func (c *Config) ClearCache() error {
	if c.Cache.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
