package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/replyscope/replyscope/pkg/sse"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --target
// on "replyscope scrape", "replyscope analyze" and "replyscope mcp").
type Flag struct {
	// Name is the long flag name (e.g. "target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "server.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTarget          = "target"
	FlagTimeout         = "timeout"
	FlagProtocol        = "protocol"
	FlagCommentLimit    = "comment-limit"
	FlagPageLimit       = "page-limit"
	FlagDelayMs         = "delay-ms"
	FlagSortMode        = "sort-mode"
	FlagPollInterval    = "poll-interval"
	FlagStorageProvider = "storage-provider"
	FlagSQLite          = "sqlite"
	FlagPostgresDSN     = "postgres-dsn"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
	FlagEventsTopic     = "events-topic"
)

// Flags is the registry shared by every replyscope command.
var Flags = FlagSet{
	FlagTarget:          {Name: "target", Shorthand: "t", ViperKey: "server.target", Description: "Backend server URL"},
	FlagTimeout:         {Name: "timeout", ViperKey: "server.timeout", Description: "Request timeout (e.g. 30s)"},
	FlagProtocol:        {Name: "protocol", ViperKey: "analysis.protocol", Description: "Analysis stream protocol (" + strings.Join(sse.ValidProtocolNames(), ", ") + ")"},
	FlagCommentLimit:    {Name: "comment-limit", Shorthand: "n", ViperKey: "analysis.comment_limit", Description: "Maximum comments to analyze (0 for all)"},
	FlagPageLimit:       {Name: "page-limit", Shorthand: "p", ViperKey: "scrape.page_limit", Description: "Number of comment pages to scrape"},
	FlagDelayMs:         {Name: "delay-ms", ViperKey: "scrape.delay_ms", Description: "Delay between page requests in milliseconds"},
	FlagSortMode:        {Name: "sort-mode", ViperKey: "scrape.sort_mode", Description: "Comment order while scraping (time, hot)"},
	FlagPollInterval:    {Name: "poll-interval", ViperKey: "scrape.poll_interval", Description: "Progress polling interval (e.g. 1s)"},
	FlagStorageProvider: {Name: "storage-provider", ViperKey: "storage.provider", Description: "History storage (memory, sqlite, postgres)"},
	FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite history database"},
	FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for history"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Event publisher (none, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
	FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for replyscope events"},
}

// ConnectionFlags are the flags every command talking to the backend takes.
var ConnectionFlags = []string{FlagTarget, FlagTimeout}

// RecordingFlags are the flags of commands that persist history or publish
// events.
var RecordingFlags = []string{
	FlagStorageProvider, FlagSQLite, FlagPostgresDSN,
	FlagEventsProvider, FlagEventsBrokers, FlagEventsTopic,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
