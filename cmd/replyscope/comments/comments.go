// Package commentscmder provides the comments command for browsing the
// comments of a completed scrape task.
package commentscmder

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
	"github.com/replyscope/replyscope/pkg/utils"
)

// SortOrders are the result orderings the backend accepts.
var SortOrders = []string{"time_desc", "time_asc", "like_desc", "like_asc"}

const contentWidth = 60

type commentsCommander struct {
	taskID  string
	sort    string
	keyword string
	limit   int
	replies bool

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const commentsLongDesc string = `Show the scraped comments of a task.

Comments are printed as a table of author, likes, time and content. Use
--sort to order them, --keyword to keep only comments containing a word and
--limit to cap how many are fetched. --replies prints replies indented under
each comment.

Without --task the selected task is used.

Examples:
  replyscope comments
  replyscope comments --task task-123 --sort like_desc --limit 20
  replyscope comments --keyword walnut --replies`

const commentsShortDesc string = "Show a task's comments"

func NewCommentsCmd() *cobra.Command {
	cmder := &commentsCommander{}

	cmd := &cobra.Command{
		Use:   "comments",
		Short: commentsShortDesc,
		Long:  commentsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.sort != "" && !validSort(cmder.sort) {
				return fmt.Errorf("invalid sort %q (available: %s)", cmder.sort, strings.Join(SortOrders, ", "))
			}
			if cmder.limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg

			cmder.taskID, err = cmdutil.ResolveTaskID(cmd, cmder.taskID)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.taskID, "task", "", "Task ID (defaults to the selected task)")
	cmd.Flags().StringVar(&cmder.sort, "sort", "", "Order ("+strings.Join(SortOrders, ", ")+")")
	cmd.Flags().StringVarP(&cmder.keyword, "keyword", "k", "", "Only show comments containing this keyword")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "l", 50, "Maximum comments to fetch (0 for the backend default)")
	cmd.Flags().BoolVar(&cmder.replies, "replies", false, "Show replies under each comment")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func validSort(s string) bool {
	for _, o := range SortOrders {
		if s == o {
			return true
		}
	}
	return false
}

func (c *commentsCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	result, err := cl.Results(ctx, c.taskID, client.ResultQuery{
		Sort:    c.sort,
		Keyword: c.keyword,
		Limit:   c.limit,
	})
	if err != nil {
		return fmt.Errorf("loading comments for %s: %w", c.taskID, err)
	}

	fmt.Fprintf(c.out, "\n  %s %s %s\n\n",
		cliui.HeaderStyle.Render("Comments for"),
		cliui.IDStyle.Render(result.TaskID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d of %d)", len(result.Comments), result.TotalCount)),
	)

	if len(result.Comments) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No comments found."))
		return nil
	}

	fmt.Fprintln(c.out, RenderTable(c.out, result.Comments, c.replies))
	return nil
}

// RenderTable renders comments as a table. With replies set, each reply
// follows its parent on its own row with a ↳ marker.
func RenderTable(w io.Writer, comments []client.Comment, replies bool) string {
	rows := make([][]string, 0, len(comments))
	for _, cm := range comments {
		rows = append(rows, commentRow(cm, ""))
		if !replies {
			continue
		}
		for _, r := range cm.Replies {
			rows = append(rows, commentRow(r, "↳ "))
		}
	}

	return cliui.Table(w, []string{"AUTHOR", "LIKES", "TIME", "CONTENT"}, rows)
}

func commentRow(cm client.Comment, prefix string) []string {
	content := strings.Join(strings.Fields(cm.Content), " ")
	return []string{
		prefix + cm.Author,
		strconv.Itoa(cm.Likes),
		cm.Time,
		utils.Truncate(content, contentWidth),
	}
}
