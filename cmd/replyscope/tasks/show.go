package taskscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/utils"
)

const previewComments = 5

type showCommander struct {
	taskID string

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const showLongDesc string = `Show a single scrape task.

Prints the task's video, status, timing and a preview of its first comments.
Without an argument the selected task is shown.

Examples:
  replyscope tasks show
  replyscope tasks show task-123`

const showShortDesc string = "Show a scrape task"

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show [task-id]",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
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

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *showCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	task, err := cl.Task(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("loading task %s: %w", c.taskID, err)
	}

	printTask(c.out, task)
	return nil
}

func printTask(out io.Writer, t *client.Task) {
	field := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", key)), value)
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.NameStyle.Render(t.VideoTitle))
	field("Task:", cliui.IDStyle.Render(t.TaskID))
	field("Video:", t.VideoID)
	field("Status:", cliui.StatusStyle(t.Status).Render(t.Status))
	field("Comments:", strconv.Itoa(t.CommentCount))
	field("Started:", t.StartTime)
	field("Ended:", t.EndTime)
	if t.Status == client.StatusRunning {
		field("Progress:", fmt.Sprintf("%s page %d/%d",
			cliui.ProgressBar(t.Progress.Fraction(), 20), t.Progress.CurrentPage, t.Progress.PageLimit))
	}
	if t.Error != "" {
		field("Error:", cliui.WarnStyle.Render(t.Error))
	}

	if len(t.Comments) == 0 {
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintf(out, "\n  %s\n", cliui.HeaderStyle.Render("Comments"))
	for i, cm := range t.Comments {
		if i == previewComments {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("… %d more", len(t.Comments)-previewComments)))
			break
		}
		fmt.Fprintf(out, "  %s %s %s\n",
			cliui.NameStyle.Render(cm.Author),
			cliui.DimStyle.Render(fmt.Sprintf("♥ %d", cm.Likes)),
			cliui.PreviewStyle.Render(utils.Truncate(cm.Content, 72)),
		)
	}
	fmt.Fprintln(out)
}
