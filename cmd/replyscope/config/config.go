// Package configcmder provides the config command for managing persistent
// replyscope configuration stored in the .replyscope/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent replyscope configuration.

Configuration is stored as config.toml in the .replyscope/ directory and
provides default values for command flags. CLI flags always take precedence,
followed by REPLYSCOPE_* environment variables, then config file values.

Keys use dotted notation matching the TOML section structure:
  server.target, server.timeout,
  analysis.protocol, analysis.comment_limit,
  scrape.page_limit, scrape.delay_ms, scrape.sort_mode, scrape.poll_interval,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  replyscope config set <key> <value>    Set a configuration value
  replyscope config get <key>            Get a configuration value
  replyscope config list                 List all configuration values

Examples:
  replyscope config set server.target http://10.0.0.5:8080
  replyscope config set analysis.protocol auto
  replyscope config get scrape.page_limit
  replyscope config list`

const configShortDesc string = "Manage persistent replyscope configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
