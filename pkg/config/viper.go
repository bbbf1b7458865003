package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/replyscope/replyscope/pkg/dotdir"
)

// EnvPrefix is the environment variable prefix bound by InitViper.
const EnvPrefix = "REPLYSCOPE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the REPLYSCOPE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (REPLYSCOPE_SERVER_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: REPLYSCOPE_SERVER_TARGET, REPLYSCOPE_STORAGE_PROVIDER, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.target", d.Server.Target)
	v.SetDefault("server.timeout", d.Server.Timeout)

	// Analysis
	v.SetDefault("analysis.protocol", d.Analysis.Protocol)
	v.SetDefault("analysis.comment_limit", d.Analysis.CommentLimit)

	// Scrape
	v.SetDefault("scrape.page_limit", d.Scrape.PageLimit)
	v.SetDefault("scrape.delay_ms", d.Scrape.DelayMs)
	v.SetDefault("scrape.sort_mode", d.Scrape.SortMode)
	v.SetDefault("scrape.poll_interval", d.Scrape.PollInterval)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper materializes a Config from the viper precedence chain.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Target:  v.GetString("server.target"),
			Timeout: v.GetString("server.timeout"),
		},
		Analysis: AnalysisConfig{
			Protocol:     v.GetString("analysis.protocol"),
			CommentLimit: v.GetUint("analysis.comment_limit"),
		},
		Scrape: ScrapeConfig{
			PageLimit:    v.GetUint("scrape.page_limit"),
			DelayMs:      v.GetUint("scrape.delay_ms"),
			SortMode:     v.GetString("scrape.sort_mode"),
			PollInterval: v.GetString("scrape.poll_interval"),
		},
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}
