// Package taskscmder provides the tasks command for listing scrape tasks and
// inspecting a single task.
package taskscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
	"github.com/replyscope/replyscope/pkg/utils"
)

type tasksCommander struct {
	status string
	quiet  bool

	target    string
	timeout   string
	configDir string
	cfg       *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const tasksLongDesc string = `List scrape tasks known to the backend.

Shows per-status counters followed by a table of tasks. The currently
selected task (see "replyscope use") is marked with *.

Use --status to show only running, completed or failed tasks and --quiet to
print task IDs only, one per line.

Examples:
  replyscope tasks
  replyscope tasks --status completed
  replyscope tasks show task-123`

const tasksShortDesc string = "List scrape tasks"

var validStatuses = []string{"all", client.StatusRunning, client.StatusCompleted, client.StatusFailed}

func NewTasksCmd() *cobra.Command {
	cmder := &tasksCommander{}

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: tasksShortDesc,
		Long:  tasksLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if !isValidStatus(cmder.status) {
				return fmt.Errorf("invalid status %q (available: %s)", cmder.status, strings.Join(validStatuses, ", "))
			}

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

	cmd.Flags().StringVar(&cmder.status, "status", "all", "Show only tasks with this status ("+strings.Join(validStatuses, ", ")+")")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only task IDs, one per line")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	cmd.AddCommand(newShowCmd())

	return cmd
}

func isValidStatus(status string) bool {
	for _, s := range validStatuses {
		if strings.EqualFold(status, s) {
			return true
		}
	}
	return false
}

func (c *tasksCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	tasks, err := cl.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	filtered := client.FilterTasks(tasks, c.status)

	if c.quiet {
		for _, t := range filtered {
			fmt.Fprintln(c.out, t.TaskID)
		}
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", RenderCounts(client.CountByStatus(tasks)))

	if len(filtered) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No tasks found."))
		return nil
	}

	selected := ""
	sel, err := dotdir.NewManager().LoadSelection(c.configDir)
	if err != nil {
		c.logger.Debug("could not load selection", "error", err)
	} else if sel != nil {
		selected = sel.TaskID
	}

	fmt.Fprintln(c.out, RenderTable(c.out, filtered, selected))
	return nil
}

// RenderCounts renders the per-status counters shown above the task table.
func RenderCounts(counts client.TaskCounts) string {
	return strings.Join([]string{
		cliui.ValueStyle.Render("Total " + strconv.Itoa(counts.Total)),
		cliui.StatusStyle(client.StatusRunning).Render("Running " + strconv.Itoa(counts.Running)),
		cliui.StatusStyle(client.StatusCompleted).Render("Completed " + strconv.Itoa(counts.Completed)),
		cliui.StatusStyle(client.StatusFailed).Render("Failed " + strconv.Itoa(counts.Failed)),
	}, cliui.DimStyle.Render("  ·  "))
}

// RenderTable renders tasks as a table, marking the selected task.
func RenderTable(w io.Writer, tasks []client.Task, selected string) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		mark := " "
		if t.TaskID == selected {
			mark = "*"
		}

		comments := strconv.Itoa(t.CommentCount)
		if t.Status == client.StatusRunning {
			comments = cliui.ProgressBar(t.Progress.Fraction(), 10) + " " + strconv.Itoa(t.Progress.TotalComments)
		}

		rows = append(rows, []string{
			mark,
			t.TaskID,
			t.VideoID,
			utils.Truncate(t.VideoTitle, 32),
			cliui.StatusStyle(t.Status).Render(t.Status),
			comments,
			t.StartTime,
		})
	}

	return cliui.Table(w, []string{"", "TASK", "VIDEO", "TITLE", "STATUS", "COMMENTS", "STARTED"}, rows)
}
