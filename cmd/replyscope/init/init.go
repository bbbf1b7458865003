// Package initcmder provides the init command for initializing a local
// .replyscope directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .replyscope/ directory in the current working directory.

Creates a local .replyscope/ directory that takes precedence over the default
~/.replyscope/ directory for the selected task, analysis history and
configuration.

A config.toml with default values is written unless one already exists.
Use --preset to write a ready-made configuration instead:

  local      SQLite history, no event publishing (the default)
  postgres   history in a local PostgreSQL database
  kafka      SQLite history plus analysis events on a local Kafka broker

--preset also accepts an http(s) URL pointing at a config.toml to fetch.

Examples:
  replyscope init
  replyscope init --preset postgres
  replyscope init --preset https://example.com/replyscope/config.toml`

const initShortDesc string = "Initialize a local .replyscope/ directory"

const remoteFetchTimeout = 10 * time.Second

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Preset name ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL of a config.toml")

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	// Resolve the preset before touching the filesystem so a bad name or an
	// unreachable URL leaves nothing behind.
	var cfg *config.Config
	if c.preset != "" {
		cfg, err = resolvePreset(ctx, c.preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	alreadyInitialized := err == nil && info.IsDir()

	if !alreadyInitialized {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .replyscope directory: %w", err)
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	switch {
	case cfg != nil:
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Wrote %s preset config: %s\n", c.preset, cfger.GetTarget())

	case !fileExists(cfger.GetTarget()):
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	if alreadyInitialized {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
		return nil
	}

	fmt.Fprintf(c.out, "Initialized .replyscope directory: %s\n", dir)
	return nil
}

func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchRemoteConfig(ctx, preset)
	}
	return config.PresetConfig(preset)
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
