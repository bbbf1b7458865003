// Package mcpcmder provides the mcp command for serving the replyscope tools
// to agents over the Model Context Protocol.
package mcpcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/logger"
	"github.com/replyscope/replyscope/pkg/mcp"
	"github.com/replyscope/replyscope/pkg/recorder"
)

const shutdownTimeout = 5 * time.Second

type mcpCommander struct {
	listen   string
	noRecord bool
	logFile  string

	target          string
	timeout         string
	protocol        string
	commentLimit    uint
	storageProvider string
	sqlitePath      string
	postgresDSN     string
	eventsProvider  string
	eventsBrokers   string
	eventsTopic     string

	cfg       *config.Config
	configDir string

	debug  bool
	logger *slog.Logger
}

const mcpLongDesc string = `Serve replyscope to agents over the Model Context Protocol.

The server exposes tools to list scrape tasks, read and filter comments,
read comment statistics, list analysis templates and run analyses. By
default it speaks MCP over stdin and stdout, the way agent hosts launch
local servers. Use --listen to serve streamable HTTP instead.

Analyses run through the server are recorded in local history unless
--no-record is given. With --log-file the server also writes JSON logs,
including every tool call, to that file.

Examples:
  replyscope mcp
  replyscope mcp --listen :8090
  replyscope mcp --log-file ~/.replyscope/mcp.log
  replyscope mcp --target http://scraper.internal:8080 --no-record`

const mcpShortDesc string = "Serve the replyscope MCP tools"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			keys := []string{config.FlagTarget, config.FlagTimeout, config.FlagProtocol, config.FlagCommentLimit}
			keys = append(keys, config.RecordingFlags...)

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
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.listen, "listen", "", "Serve streamable HTTP on this address instead of stdio")
	cmd.Flags().BoolVar(&cmder.noRecord, "no-record", false, "Do not record analyses in local history")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write debug level JSON logs to this file")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagProtocol, &cmder.protocol)
	config.AddUintFlag(cmd, config.Flags, config.FlagCommentLimit, &cmder.commentLimit)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithJSON(true),
			logger.WithDebug(true),
			logger.WithSource(c.debug),
			logger.WithWriter(f),
		))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	protocol, err := cmdutil.Protocol(c.cfg)
	if err != nil {
		return err
	}

	var rec *recorder.Pool
	if !c.noRecord {
		history, err := cmdutil.OpenHistory(ctx, c.cfg, c.configDir, c.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := history.Close(); err != nil {
				c.logger.Warn("closing history", "error", err)
			}
		}()
		rec = history.Recorder
	}

	server, err := mcp.NewServer(mcp.Config{
		Client:       cl,
		Recorder:     rec,
		Protocol:     protocol,
		CommentLimit: int(c.cfg.Analysis.CommentLimit),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if c.listen == "" {
		c.logger.Debug("serving MCP over stdio", "target", c.cfg.Server.Target)
		err := server.Run(ctx, &gomcp.StdioTransport{})
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	return c.serveHTTP(ctx, server.Handler())
}

// serveHTTP serves handler on the listen address until ctx is done.
func (c *mcpCommander) serveHTTP(ctx context.Context, handler http.Handler) error {
	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.logger.Info("serving MCP over HTTP",
		"addr", ln.Addr().String(),
		"target", c.cfg.Server.Target,
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("MCP server error: %w", err)
	case <-ctx.Done():
		c.logger.Info("shutting down MCP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
