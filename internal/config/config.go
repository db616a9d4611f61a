package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultBufSize           = 100
	DefaultKeepaliveSchedule = "@every 5m"
)

type Config struct {
	Channels ChannelsConfig `mapstructure:"channels"`
	Stores   StoresConfig   `mapstructure:"stores"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Token     string   `mapstructure:"token"`
	AllowFrom []string `mapstructure:"allow-from"`
	Proxy     string   `mapstructure:"proxy"`
}

type StoresConfig struct {
	ProfilePath string `mapstructure:"profile-path"`
	CatalogPath string `mapstructure:"catalog-path"`
	// Keepalive is a cron spec for the periodic store ping.
	Keepalive string `mapstructure:"keepalive"`
}

type LoggingConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// ConfigDir returns the directory holding the config file and databases.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vuzbot")
}

func Default() *Config {
	dir := ConfigDir()
	return &Config{
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{Enabled: true},
		},
		Stores: StoresConfig{
			ProfilePath: filepath.Join(dir, "data", "users.db"),
			CatalogPath: filepath.Join(dir, "data", "universities.db"),
			Keepalive:   DefaultKeepaliveSchedule,
		},
	}
}

// Load reads the config file at path (or the default location when empty)
// and overlays VUZBOT_* environment variables. Missing file is not an error;
// defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VUZBOT")
	v.AutomaticEnv()
	// The scraper-era deployments exported the bot token as TOKEN.
	if err := v.BindEnv("channels.telegram.token", "VUZBOT_TOKEN", "TOKEN"); err != nil {
		return nil, fmt.Errorf("bind token env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("vuzbot")
		v.SetConfigType("yaml")
	}

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Stores.Keepalive == "" {
		cfg.Stores.Keepalive = DefaultKeepaliveSchedule
	}
	return cfg, nil
}

// Validate checks that the config can actually start the gateway.
func (c *Config) Validate() error {
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set channels.telegram.token or VUZBOT_TOKEN)")
	}
	if c.Stores.ProfilePath == "" {
		return fmt.Errorf("stores.profile-path is required")
	}
	if c.Stores.CatalogPath == "" {
		return fmt.Errorf("stores.catalog-path is required")
	}
	return nil
}
