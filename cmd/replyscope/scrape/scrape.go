// Package scrapecmder provides the scrape command for starting comment scrape
// tasks on the backend.
package scrapecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	watchcmder "github.com/replyscope/replyscope/cmd/replyscope/watch"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
)

// Authentication modes accepted by the backend.
const (
	authNone   = "none"
	authCookie = "cookie"
	authApp    = "app"
)

type scrapeCommander struct {
	video     string
	replies   bool
	authType  string
	cookie    string
	appKey    string
	appSecret string
	watch     bool
	plain     bool
	use       bool

	target       string
	timeout      string
	pageLimit    uint
	delayMs      uint
	sortMode     string
	pollInterval string
	configDir    string
	cfg          *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const scrapeLongDesc string = `Start scraping the comments of a video.

The video may be given as a BV id, an av id or a full video URL. The backend
starts a task and returns its ID immediately; use --watch to follow the task
until it finishes, or run "replyscope watch <task-id>" later.

Page limit, request delay and sort mode default to the scrape section of the
config file. Logged-in scraping takes either a SESSDATA cookie (--cookie) or
an app key and secret (--app-key, --app-secret).

Examples:
  replyscope scrape BV1xx411c7mD
  replyscope scrape https://www.bilibili.com/video/BV1xx411c7mD --watch --use
  replyscope scrape BV1xx411c7mD -p 10 --sort-mode hot --replies
  replyscope scrape BV1xx411c7mD --cookie "$SESSDATA"`

const scrapeShortDesc string = "Start a comment scrape"

var scrapeFlags = []string{
	config.FlagTarget, config.FlagTimeout,
	config.FlagPageLimit, config.FlagDelayMs, config.FlagSortMode, config.FlagPollInterval,
}

func NewScrapeCmd() *cobra.Command {
	cmder := &scrapeCommander{}

	cmd := &cobra.Command{
		Use:   "scrape <video>",
		Short: scrapeShortDesc,
		Long:  scrapeLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, scrapeFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return cmder.resolveAuth(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.video = args[0]
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.replies, "replies", false, "Also scrape replies to each comment")
	cmd.Flags().StringVar(&cmder.authType, "auth", "", "Authentication mode (none, cookie, app); inferred from the credentials given")
	cmd.Flags().StringVar(&cmder.cookie, "cookie", "", "SESSDATA cookie for logged-in scraping")
	cmd.Flags().StringVar(&cmder.appKey, "app-key", "", "App key for app authentication")
	cmd.Flags().StringVar(&cmder.appSecret, "app-secret", "", "App secret for app authentication")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Follow the task until it finishes")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "With --watch, print progress lines instead of the interactive view")
	cmd.Flags().BoolVar(&cmder.use, "use", false, "Select the new task for later commands")

	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagPageLimit, &cmder.pageLimit)
	config.AddUintFlag(cmd, config.Flags, config.FlagDelayMs, &cmder.delayMs)
	config.AddStringFlag(cmd, config.Flags, config.FlagSortMode, &cmder.sortMode)
	config.AddStringFlag(cmd, config.Flags, config.FlagPollInterval, &cmder.pollInterval)

	return cmd
}

// resolveAuth infers the auth mode from the credentials when --auth is unset
// and checks that the credentials for the chosen mode are present.
func (c *scrapeCommander) resolveAuth(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("auth") {
		switch {
		case c.cookie != "":
			c.authType = authCookie
		case c.appKey != "" || c.appSecret != "":
			c.authType = authApp
		default:
			c.authType = authNone
		}
	}

	switch c.authType {
	case authNone:
		return nil
	case authCookie:
		if c.cookie == "" {
			return fmt.Errorf("--auth cookie requires --cookie")
		}
		return nil
	case authApp:
		if c.appKey == "" || c.appSecret == "" {
			return fmt.Errorf("--auth app requires --app-key and --app-secret")
		}
		return nil
	default:
		return fmt.Errorf("invalid auth mode %q (available: %s, %s, %s)", c.authType, authNone, authCookie, authApp)
	}
}

func (c *scrapeCommander) request() client.ScrapeRequest {
	req := client.ScrapeRequest{
		VideoID:        strings.TrimSpace(c.video),
		AuthType:       c.authType,
		PageLimit:      int(c.cfg.Scrape.PageLimit),
		DelayMs:        int(c.cfg.Scrape.DelayMs),
		SortMode:       c.cfg.Scrape.SortMode,
		IncludeReplies: c.replies,
	}

	switch c.authType {
	case authCookie:
		req.Cookie = c.cookie
	case authApp:
		req.AppKey = c.appKey
		req.AppSecret = c.appSecret
	}

	return req
}

func (c *scrapeCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	req := c.request()
	c.logger.Debug("starting scrape",
		"video", req.VideoID,
		"page_limit", req.PageLimit,
		"sort_mode", req.SortMode,
		"auth", req.AuthType,
	)

	resp, err := cl.StartScrape(ctx, req)
	if err != nil {
		return fmt.Errorf("starting scrape: %w", err)
	}

	fmt.Fprintf(c.out, "  %s Started task %s for %s\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(resp.TaskID),
		cliui.ValueStyle.Render(resp.VideoID),
	)

	if c.use {
		sel := &dotdir.Selection{TaskID: resp.TaskID, VideoID: resp.VideoID}
		if err := dotdir.NewManager().SaveSelection(sel, c.configDir); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s Selected %s\n", cliui.SuccessMark, cliui.IDStyle.Render(resp.TaskID))
	}

	if !c.watch {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Follow it with: replyscope watch "+resp.TaskID))
		return nil
	}

	interval, err := config.ParseDuration("scrape.poll_interval", c.cfg.Scrape.PollInterval, client.DefaultPollInterval)
	if err != nil {
		return err
	}

	last, err := watchcmder.Watch(ctx, c.out, cl, resp.TaskID, watchcmder.Options{
		Interval: interval,
		Plain:    c.plain,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	if c.use && last != nil && last.VideoTitle != "" {
		sel := &dotdir.Selection{TaskID: resp.TaskID, VideoID: resp.VideoID, VideoTitle: last.VideoTitle}
		if err := dotdir.NewManager().SaveSelection(sel, c.configDir); err != nil {
			c.logger.Warn("could not update selection", "error", err)
		}
	}

	return nil
}
