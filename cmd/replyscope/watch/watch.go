// Package watchcmder provides the watch command for following the progress of
// a running scrape task.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
)

type watchCommander struct {
	taskID string
	plain  bool

	target       string
	timeout      string
	pollInterval string
	cfg          *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const watchLongDesc string = `Follow a scrape task until it completes or fails.

Polls the task's progress at the configured interval (scrape.poll_interval).
On a terminal an animated progress view is shown; press q to stop watching,
which leaves the task running on the backend. When output is not a terminal,
or with --plain, one line is printed per progress change.

Without an argument the selected task is watched.

Examples:
  replyscope watch
  replyscope watch task-123 --poll-interval 2s
  replyscope watch --plain | tee scrape.log`

const watchShortDesc string = "Follow a scrape task's progress"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch [task-id]",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, []string{config.FlagTarget, config.FlagTimeout, config.FlagPollInterval})
			if err != nil {
				return err
			}
			cmder.cfg = cfg

			explicit := ""
			if len(args) == 1 {
				explicit = args[0]
			}
			cmder.taskID, err = cmdutil.ResolveTaskID(cmd, explicit)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print progress lines instead of the interactive view")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagPollInterval, &cmder.pollInterval)

	return cmd
}

func (c *watchCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	interval, err := config.ParseDuration("scrape.poll_interval", c.cfg.Scrape.PollInterval, client.DefaultPollInterval)
	if err != nil {
		return err
	}

	_, err = Watch(ctx, c.out, cl, c.taskID, Options{
		Interval: interval,
		Plain:    c.plain,
		Logger:   c.logger,
	})
	return err
}

// Options tune Watch.
type Options struct {
	Interval time.Duration

	// Plain forces line output even on a terminal.
	Plain bool

	Logger *slog.Logger
}

// Watch follows taskID until it finishes and prints a final summary line.
// Stopping the interactive view early returns the last progress seen and a
// nil error.
func Watch(ctx context.Context, out io.Writer, cl *client.Client, taskID string, opts Options) (*client.Progress, error) {
	if opts.Interval <= 0 {
		opts.Interval = client.DefaultPollInterval
	}

	var (
		last    *client.Progress
		stopped bool
		err     error
	)

	start := time.Now()
	if !opts.Plain && cliui.IsTerminal(out) {
		poll := func(ctx context.Context) (*client.Progress, error) {
			return cl.Progress(ctx, taskID)
		}
		last, stopped, err = runWatchTUI(ctx, taskID, poll, opts.Interval)
	} else {
		last, err = cl.WaitForTask(ctx, taskID, opts.Interval, newLinePrinter(out, taskID))
	}

	if opts.Logger != nil {
		opts.Logger.Debug("watch finished", "task_id", taskID, "duration", time.Since(start), "error", err)
	}

	var failed *client.TaskFailedError
	switch {
	case stopped:
		fmt.Fprintf(out, "  %s Stopped watching %s; the task keeps running.\n",
			cliui.DimStyle.Render("●"), cliui.IDStyle.Render(taskID))
		return last, nil

	case errors.As(err, &failed):
		fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, failed.Error())
		return last, err

	case err != nil:
		return last, fmt.Errorf("watching task %s: %w", taskID, err)
	}

	fmt.Fprintf(out, "  %s Scraped %d comments in %s\n",
		cliui.SuccessMark,
		last.Progress.TotalComments,
		cliui.FormatDuration(time.Duration(last.ElapsedSeconds)*time.Second),
	)
	return last, nil
}

// newLinePrinter returns a progress callback that prints one line each time
// the page, comment count or status changes.
func newLinePrinter(out io.Writer, taskID string) func(*client.Progress) {
	var prev *client.Progress

	return func(p *client.Progress) {
		if prev != nil && prev.Status == p.Status && prev.Progress == p.Progress {
			return
		}
		prev = p

		fmt.Fprintf(out, "  %s %s page %d/%d %s comments %s\n",
			cliui.IDStyle.Render(taskID),
			cliui.ProgressBar(p.Progress.Fraction(), 20),
			p.Progress.CurrentPage, p.Progress.PageLimit,
			cliui.ValueStyle.Render(fmt.Sprintf("%d", p.Progress.TotalComments)),
			cliui.StatusStyle(p.Status).Render(p.Status),
		)
	}
}
