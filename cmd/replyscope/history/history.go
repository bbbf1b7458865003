// Package historycmder provides the history command for browsing analyses
// recorded in local storage.
package historycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/storage"
	"github.com/replyscope/replyscope/pkg/utils"
)

// storageFlags are the registry flags selecting the history backend.
var storageFlags = []string{config.FlagStorageProvider, config.FlagSQLite, config.FlagPostgresDSN}

// shortIDLen is how much of a record ID the list shows.
const shortIDLen = 8

type historyCommander struct {
	taskID string
	limit  int

	storageProvider string
	sqlitePath      string
	postgresDSN     string

	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const historyLongDesc string = `List analyses recorded in local history.

Every finished "replyscope analyze" run is recorded with its task, template
and text. Filter by task with --task and open one with "history show".

Examples:
  replyscope history
  replyscope history --task task-123
  replyscope history show 3f2a9c1e`

const historyShortDesc string = "List recorded analyses"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, storageFlags)
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

	cmd.Flags().StringVar(&cmder.taskID, "task", "", "Only list analyses of this task")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "l", 20, "Maximum analyses to list (0 for all)")
	addStorageFlags(cmd, &cmder.storageProvider, &cmder.sqlitePath, &cmder.postgresDSN)

	cmd.AddCommand(newShowCmd())

	return cmd
}

func addStorageFlags(cmd *cobra.Command, provider, sqlitePath, postgresDSN *string) {
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, postgresDSN)
}

func (c *historyCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	driver, err := cmdutil.NewStorageDriver(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	recs, err := driver.ListAnalyses(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("listing analyses: %w", err)
	}

	if len(recs) == 0 {
		fmt.Fprintf(c.out, "  %s No analyses recorded yet\n", cliui.DimStyle.Render("●"))
		return nil
	}

	total := len(recs)
	if c.limit > 0 && len(recs) > c.limit {
		recs = recs[:c.limit]
	}

	fmt.Fprintln(c.out, RenderTable(c.out, recs))
	if len(recs) < total {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("showing %d of %d", len(recs), total)))
	}
	return nil
}

// RenderTable renders analysis records newest first, as the store returns
// them.
func RenderTable(w io.Writer, recs []*storage.AnalysisRecord) string {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []string{
			cliui.IDStyle.Render(shortID(rec.ID)),
			rec.TaskID,
			templateLabel(rec),
			utils.Truncate(rec.VideoTitle, 30),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(len([]rune(rec.Content))),
		})
	}
	return cliui.Table(w, []string{"ID", "Task", "Template", "Video", "Created", "Chars"}, rows)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func templateLabel(rec *storage.AnalysisRecord) string {
	if rec.CustomPrompt == "" {
		return rec.TemplateID
	}
	return rec.TemplateID + ": " + utils.Truncate(rec.CustomPrompt, 24)
}
