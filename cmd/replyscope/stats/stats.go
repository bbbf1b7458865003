// Package statscmder provides the stats command for the date, like and
// keyword distribution of a completed task.
package statscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
)

const histogramWidth = 30

type statsCommander struct {
	taskID   string
	keywords int

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const statsLongDesc string = `Show statistics for a completed task.

Prints comment counts per day, per like bucket (0-10, 11-50, 51-100, 100+)
and the most frequent keywords.

Without an argument the selected task is used.

Examples:
  replyscope stats
  replyscope stats task-123 --keywords 20`

const statsShortDesc string = "Show comment statistics"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats [task-id]",
		Short: statsShortDesc,
		Long:  statsLongDesc,
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

	cmd.Flags().IntVar(&cmder.keywords, "keywords", 10, "Number of top keywords to show")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *statsCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	stats, err := cl.Stats(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("loading stats for %s: %w", c.taskID, err)
	}

	fmt.Fprint(c.out, Render(c.out, stats, c.keywords))
	return nil
}

// Render formats stats as three sections: by date, by likes and keywords.
// Dates are listed in ascending order and like buckets in their natural order.
func Render(w io.Writer, stats *client.Stats, keywords int) string {
	out := fmt.Sprintf("\n  %s %s  %s\n",
		cliui.HeaderStyle.Render("Stats for"),
		cliui.IDStyle.Render(stats.TaskID),
		cliui.DimStyle.Render(strconv.Itoa(stats.TotalComments)+" comments"),
	)

	dates := slices.Sorted(maps.Keys(stats.ByDate))
	out += section("By date", dates, stats.ByDate)
	out += section("By likes", likeBuckets(stats.ByLikes), stats.ByLikes)

	if len(stats.TopKeywords) > 0 && keywords > 0 {
		rows := make([][]string, 0, keywords)
		for i, kw := range stats.TopKeywords {
			if i == keywords {
				break
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), kw.Word, strconv.Itoa(kw.Count)})
		}
		out += fmt.Sprintf("\n  %s\n%s\n", cliui.HeaderStyle.Render("Top keywords"), cliui.Table(w, []string{"#", "WORD", "COUNT"}, rows))
	}

	return out + "\n"
}

// likeBuckets lists the known buckets first, then any extra ones the backend
// reported in sorted order.
func likeBuckets(byLikes map[string]int) []string {
	buckets := slices.Clone(client.LikeBuckets)
	for _, k := range slices.Sorted(maps.Keys(byLikes)) {
		if !slices.Contains(buckets, k) {
			buckets = append(buckets, k)
		}
	}
	return buckets
}

func section(title string, keys []string, counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}

	peak, width := 0, 0
	for _, k := range keys {
		peak = max(peak, counts[k])
		width = max(width, len(k))
	}

	out := fmt.Sprintf("\n  %s\n", cliui.HeaderStyle.Render(title))
	for _, k := range keys {
		fraction := 0.0
		if peak > 0 {
			fraction = float64(counts[k]) / float64(peak)
		}
		out += fmt.Sprintf("  %s %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, k)),
			cliui.ProgressBar(fraction, histogramWidth),
			cliui.ValueStyle.Render(strconv.Itoa(counts[k])),
		)
	}
	return out
}
