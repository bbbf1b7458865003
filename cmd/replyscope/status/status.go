// Package statuscmder provides the status command for checking the backend
// and showing the selected task.
package statuscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

type statusCommander struct {
	target    string
	timeout   string
	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const statusLongDesc string = `Show the backend health and the selected task.

Calls the backend's health endpoint and lists the state of each of its
services, then shows the task selected with "replyscope use".

Exits with an error when the backend is unreachable.

Examples:
  replyscope status
  replyscope status --target http://scraper.internal:8080`

const statusShortDesc string = "Show backend health and the selected task"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *statusCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s  %s\n", cliui.KeyStyle.Render("Backend: "), cliui.ValueStyle.Render(c.cfg.Server.Target))

	health, healthErr := cl.Health(ctx)
	if healthErr != nil {
		fmt.Fprintf(c.out, "  %s  %s %s\n", cliui.KeyStyle.Render("Health:  "), cliui.FailMark, healthErr)
	} else {
		fmt.Fprintf(c.out, "  %s  %s %s\n", cliui.KeyStyle.Render("Health:  "), cliui.SuccessMark, health.Status)

		names := make([]string, 0, len(health.Services))
		for name := range health.Services {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(c.out, "  %s  %s %s\n",
				cliui.KeyStyle.Render("         "),
				cliui.NameStyle.Render(name),
				cliui.DimStyle.Render(health.Services[name]),
			)
		}
	}

	sel, err := dotdir.NewManager().LoadSelection(c.configDir)
	if err != nil {
		return fmt.Errorf("loading selection: %w", err)
	}

	if sel == nil {
		fmt.Fprintf(c.out, "\n  %s No task selected. Pick one with \"replyscope use <task-id>\".\n\n", cliui.DimStyle.Render("●"))
	} else {
		fmt.Fprintf(c.out, "\n  %s  %s\n", cliui.KeyStyle.Render("Selected:"), cliui.IDStyle.Render(sel.TaskID))
		if sel.VideoTitle != "" {
			fmt.Fprintf(c.out, "  %s  %s %s\n", cliui.KeyStyle.Render("Video:   "),
				cliui.NameStyle.Render(sel.VideoTitle), cliui.DimStyle.Render(sel.VideoID))
		}
		if sel.TemplateID != "" {
			fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Template:"), cliui.ValueStyle.Render(sel.TemplateID))
		}
		if !sel.SelectedAt.IsZero() {
			fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Since:   "),
				cliui.DimStyle.Render(sel.SelectedAt.Local().Format("2006-01-02 15:04")))
		}
		fmt.Fprintln(c.out)
	}

	if healthErr != nil {
		return fmt.Errorf("backend unreachable: %w", healthErr)
	}
	return nil
}
