// Package usecmder provides the use command for selecting the task other
// commands act on by default.
package usecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

type useCommander struct {
	taskID   string
	template string

	target    string
	timeout   string
	configDir string
	cfg       *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const useLongDesc string = `Select the task that other commands act on by default.

The task is looked up on the backend first, then stored in selection.json in
the .replyscope/ directory along with its video. Commands such as comments,
stats, export and analyze use the selected task when no task ID is given.

Run without an argument to clear the selection.

Examples:
  replyscope use task-123
  replyscope use task-123 --template sentiment
  replyscope use`

const useShortDesc string = "Select or clear the current task"

func NewUseCmd() *cobra.Command {
	cmder := &useCommander{}

	cmd := &cobra.Command{
		Use:   "use [task-id]",
		Short: useShortDesc,
		Long:  useLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.taskID = ""
			if len(args) == 1 {
				cmder.taskID = args[0]
			}
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.template, "template", "", "Remember this analysis template for the task")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *useCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)
	manager := dotdir.NewManager()

	if c.taskID == "" {
		if err := manager.ClearSelection(c.configDir); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s Selection cleared\n", cliui.SuccessMark)
		return nil
	}

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	task, err := cl.Task(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("looking up task %s: %w", c.taskID, err)
	}

	sel := &dotdir.Selection{
		TaskID:     task.TaskID,
		VideoID:    task.VideoID,
		VideoTitle: task.VideoTitle,
		TemplateID: c.template,
	}
	if err := manager.SaveSelection(sel, c.configDir); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Selected %s %s\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(sel.TaskID),
		cliui.DimStyle.Render(sel.VideoTitle),
	)
	return nil
}
