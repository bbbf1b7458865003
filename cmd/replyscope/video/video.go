// Package videocmder provides the video command for looking up a video before
// scraping it.
package videocmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/utils"
)

type videoCommander struct {
	video string

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const videoLongDesc string = `Show information about a video.

Accepts a BV id, an av id or a video URL and prints the title, author,
view, like and comment counts.

Examples:
  replyscope video BV1xx411c7mD
  replyscope video https://www.bilibili.com/video/BV1xx411c7mD`

const videoShortDesc string = "Show video information"

func NewVideoCmd() *cobra.Command {
	cmder := &videoCommander{}

	cmd := &cobra.Command{
		Use:   "video <video>",
		Short: videoShortDesc,
		Long:  videoLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.video = args[0]
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *videoCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	info, err := cl.VideoInfo(ctx, c.video)
	if err != nil {
		return fmt.Errorf("looking up video: %w", err)
	}

	printVideo(c.out, info)
	return nil
}

func printVideo(out io.Writer, v *client.VideoInfo) {
	field := func(key, value string) {
		fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", key)), cliui.ValueStyle.Render(value))
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.NameStyle.Render(v.Title))
	field("BV id:", v.BVID)
	field("av id:", strconv.FormatInt(v.AID, 10))
	field("Author:", v.Author)
	field("Views:", strconv.Itoa(v.Views))
	field("Likes:", strconv.Itoa(v.Likes))
	field("Comments:", strconv.Itoa(v.CommentsTotal))
	if v.CreatedTime > 0 {
		field("Created:", time.Unix(v.CreatedTime, 0).UTC().Format(time.DateTime))
	}
	if v.Description != "" {
		fmt.Fprintf(out, "\n  %s\n", cliui.PreviewStyle.Render(utils.Truncate(v.Description, 200)))
	}
	fmt.Fprintln(out)
}
