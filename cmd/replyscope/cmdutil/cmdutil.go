// Package cmdutil holds the wiring shared by replyscope commands: config
// loading, logger, API client and the local history stack.
package cmdutil

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
	"github.com/replyscope/replyscope/pkg/logger"
	"github.com/replyscope/replyscope/pkg/sse"
)

// ConfigDir returns the --config-dir override, empty when unset.
func ConfigDir(cmd *cobra.Command) string {
	configDir, _ := cmd.Flags().GetString("config-dir")
	return configDir
}

// Debug reports the persistent --debug flag. Commands run outside the root
// command have no such flag and log at info level.
func Debug(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

// ResolveTaskID returns explicit when set, otherwise the selected task.
func ResolveTaskID(cmd *cobra.Command, explicit string) (string, error) {
	return dotdir.NewManager().ResolveTaskID(explicit, ConfigDir(cmd))
}

// LoadConfig builds the effective config for cmd. Registry flags named in keys
// that the user set on the command line win over env, file and defaults.
func LoadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, keys)
	return config.FromViper(v), nil
}

// NewLogger returns the CLI logger: colorized, on stderr, debug when asked.
func NewLogger(debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
	)
}

// NewClient builds an API client from the server section of cfg.
func NewClient(cfg *config.Config, log *slog.Logger) (*client.Client, error) {
	timeout, err := config.ParseDuration("server.timeout", cfg.Server.Timeout, client.DefaultTimeout)
	if err != nil {
		return nil, err
	}

	c, err := client.New(client.Config{
		Target:  cfg.Server.Target,
		Timeout: timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return c, nil
}

// Protocol parses the configured analysis stream protocol.
func Protocol(cfg *config.Config) (sse.Protocol, error) {
	return sse.ParseProtocol(cfg.Analysis.Protocol)
}
