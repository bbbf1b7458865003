// Package synccmder provides the sync command for snapshotting backend tasks
// into local storage.
package synccmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/recorder"
	"github.com/replyscope/replyscope/pkg/storage"
)

type syncCommander struct {
	status string

	target          string
	timeout         string
	storageProvider string
	sqlitePath      string
	postgresDSN     string
	eventsProvider  string
	eventsBrokers   string
	eventsTopic     string

	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const syncLongDesc string = `Snapshot the backend's tasks into local storage.

Each task's status, video and comment count is written to the history
store, replacing the previous snapshot of the same task. With events
enabled a task synced event is published for every task.

Examples:
  replyscope sync
  replyscope sync --status completed
  replyscope sync --storage-provider postgres --postgres-dsn postgres://...`

const syncShortDesc string = "Snapshot backend tasks into local storage"

func NewSyncCmd() *cobra.Command {
	cmder := &syncCommander{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShortDesc,
		Long:  syncLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			keys := append([]string{config.FlagTarget, config.FlagTimeout}, config.RecordingFlags...)
			cfg, err := cmdutil.LoadConfig(cmd, keys)
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

	cmd.Flags().StringVar(&cmder.status, "status", "", "Only sync tasks with this status (running, completed, failed)")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *syncCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	var tasks []client.Task
	err = cliui.Step(c.out, "Fetching tasks", func() error {
		tasks, err = cl.Tasks(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	tasks = client.FilterTasks(tasks, c.status)

	history, err := cmdutil.OpenHistory(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var queueErr error
	for _, t := range tasks {
		if err := history.Recorder.EnqueueWait(ctx, recorder.Job{Task: Snapshot(t, now)}); err != nil {
			queueErr = err
			break
		}
	}

	if err := history.Close(); err != nil {
		c.logger.Warn("closing history", "error", err)
	}

	stored, failed, dropped := history.Recorder.Stats()
	fmt.Fprintf(c.out, "  %s Synced %d of %d tasks\n",
		cliui.Mark(nil),
		stored,
		len(tasks),
	)
	if queueErr != nil {
		return fmt.Errorf("syncing tasks: %w", queueErr)
	}
	if failed+dropped > 0 {
		return fmt.Errorf("%d tasks could not be stored", failed+dropped)
	}
	return nil
}

// Snapshot converts a backend task into its stored form.
func Snapshot(t client.Task, syncedAt time.Time) *storage.TaskSnapshot {
	return &storage.TaskSnapshot{
		TaskID:       t.TaskID,
		VideoID:      t.VideoID,
		VideoTitle:   t.VideoTitle,
		Status:       t.Status,
		CommentCount: t.CommentCount,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		SyncedAt:     syncedAt,
	}
}
