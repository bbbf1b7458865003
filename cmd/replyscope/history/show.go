package historycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/storage"
)

type showCommander struct {
	id  string
	raw bool

	storageProvider string
	sqlitePath      string
	postgresDSN     string

	cfg       *config.Config
	configDir string

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const showLongDesc string = `Show a recorded analysis.

The ID may be shortened to any unique prefix, as printed by "replyscope
history". On a terminal the analysis is rendered as markdown; --raw prints
the text as recorded.

Examples:
  replyscope history show 3f2a9c1e
  replyscope history show 3f2a9c1e --raw > analysis.md`

const showShortDesc string = "Show a recorded analysis"

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, storageFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.id = args[0]
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the recorded markdown without rendering")
	addStorageFlags(cmd, &cmder.storageProvider, &cmder.sqlitePath, &cmder.postgresDSN)

	return cmd
}

func (c *showCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	driver, err := cmdutil.NewStorageDriver(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	rec, err := findAnalysis(ctx, driver, c.id)
	if err != nil {
		return err
	}

	if c.raw {
		fmt.Fprint(c.out, rec.Content)
		if !strings.HasSuffix(rec.Content, "\n") {
			fmt.Fprintln(c.out)
		}
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s  %s\n", cliui.KeyStyle.Render("ID:      "), cliui.IDStyle.Render(rec.ID))
	fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Task:    "), cliui.ValueStyle.Render(rec.TaskID))
	if rec.VideoTitle != "" {
		fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Video:   "), cliui.NameStyle.Render(rec.VideoTitle))
	}
	fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Template:"), cliui.ValueStyle.Render(rec.TemplateID))
	if rec.CustomPrompt != "" {
		fmt.Fprintf(c.out, "  %s  %s\n", cliui.KeyStyle.Render("Prompt:  "), cliui.PreviewStyle.Render(rec.CustomPrompt))
	}
	fmt.Fprintf(c.out, "  %s  %s\n\n", cliui.KeyStyle.Render("Created: "),
		cliui.DimStyle.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04:05")))

	content := rec.Content
	if cliui.IsTerminal(c.out) {
		rendered, err := cliui.RenderMarkdown(content)
		if err != nil {
			c.logger.Debug("rendering markdown", "error", err)
		}
		content = rendered
	}
	fmt.Fprintln(c.out, content)
	return nil
}

// findAnalysis looks id up exactly, then as a unique prefix of a recorded ID.
func findAnalysis(ctx context.Context, driver storage.Driver, id string) (*storage.AnalysisRecord, error) {
	rec, err := driver.GetAnalysis(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !storage.IsNotFound(err) {
		return nil, fmt.Errorf("loading analysis: %w", err)
	}

	all, err := driver.ListAnalyses(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	var matches []*storage.AnalysisRecord
	for _, r := range all {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, storage.NotFoundError{ID: id}
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("analysis id %q is ambiguous (%d matches)", id, len(matches))
	}
}
