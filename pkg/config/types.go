package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/replyscope/replyscope/pkg/sse"
)

// Config represents the persistent replyscope configuration stored as
// config.toml in the .replyscope/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Server   ServerConfig   `toml:"server"`
	Analysis AnalysisConfig `toml:"analysis"`
	Scrape   ScrapeConfig   `toml:"scrape"`
	Storage  StorageConfig  `toml:"storage"`
	Events   EventsConfig   `toml:"events"`
}

// ServerConfig holds the backend connection settings.
type ServerConfig struct {
	// Target is the backend base URL (scheme + host + port).
	Target string `toml:"target,omitempty"`

	// Timeout bounds unary requests, as a Go duration string ("30s").
	Timeout string `toml:"timeout,omitempty"`
}

// AnalysisConfig holds settings for streamed analyses.
type AnalysisConfig struct {
	// Protocol is the stream framing: "v1", "v2" or "auto".
	Protocol string `toml:"protocol,omitempty"`

	// CommentLimit caps the comments sent to the model. 0 means all.
	CommentLimit uint `toml:"comment_limit,omitempty"`
}

// ScrapeConfig holds the defaults for new scrape tasks.
type ScrapeConfig struct {
	PageLimit    uint   `toml:"page_limit,omitempty"`
	DelayMs      uint   `toml:"delay_ms,omitempty"`
	SortMode     string `toml:"sort_mode,omitempty"`
	PollInterval string `toml:"poll_interval,omitempty"`
}

// StorageConfig holds local analysis history settings.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig holds event publishing settings.
type EventsConfig struct {
	// Provider is "none" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into trimmed, non-empty addresses.
func (e EventsConfig) BrokerList() []string {
	return SplitList(e.Brokers)
}

// SplitList splits a comma separated value into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDuration parses a duration config value, returning fallback when the
// value is empty.
func ParseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid value for %s: must be positive", key)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(key string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := ParseDuration(key, v, 0); err != nil {
				return err
			}
			*field(c) = v
			return nil
		},
	}
}

func oneOfKey(key string, allowed []string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, a := range allowed {
				if v == a {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (available: %s)", key, v, strings.Join(allowed, ", "))
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.target": {
		get: func(c *Config) string { return c.Server.Target },
		set: func(c *Config, v string) error { c.Server.Target = v; return nil },
	},
	"server.timeout": durationKey("server.timeout", func(c *Config) *string { return &c.Server.Timeout }),

	"analysis.protocol": oneOfKey("analysis.protocol", sse.ValidProtocolNames(),
		func(c *Config) *string { return &c.Analysis.Protocol }),
	"analysis.comment_limit": uintKey("analysis.comment_limit", func(c *Config) *uint { return &c.Analysis.CommentLimit }),

	"scrape.page_limit": uintKey("scrape.page_limit", func(c *Config) *uint { return &c.Scrape.PageLimit }),
	"scrape.delay_ms":   uintKey("scrape.delay_ms", func(c *Config) *uint { return &c.Scrape.DelayMs }),
	"scrape.sort_mode": oneOfKey("scrape.sort_mode", []string{"time", "hot"},
		func(c *Config) *string { return &c.Scrape.SortMode }),
	"scrape.poll_interval": durationKey("scrape.poll_interval", func(c *Config) *string { return &c.Scrape.PollInterval }),

	"storage.provider": oneOfKey("storage.provider", []string{"memory", "sqlite", "postgres"},
		func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},

	"events.provider": oneOfKey("events.provider", []string{"none", "kafka"},
		func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
