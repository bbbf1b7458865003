// Package mcp provides an MCP (Model Context Protocol) server that lets agents
// browse scrape tasks, read comments and run analyses through the backend.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/recorder"
	"github.com/replyscope/replyscope/pkg/sse"
	"github.com/replyscope/replyscope/pkg/utils"
)

type Config struct {
	// Client talks to the comment backend.
	Client *client.Client

	// Recorder optionally keeps every analysis in local history.
	Recorder *recorder.Pool

	// Protocol selects the analysis stream framing.
	Protocol sse.Protocol

	// CommentLimit caps comments sent to the model when a call leaves it unset.
	CommentLimit int

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the comment tools.
func NewServer(c Config) (*Server, error) {
	if c.Client == nil {
		return nil, errors.New("client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "replyscope",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listTasksToolName,
		Description: listTasksDescription,
	}, s.handleListTasks)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getCommentsToolName,
		Description: getCommentsDescription,
	}, s.handleGetComments)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getStatsToolName,
		Description: getStatsDescription,
	}, s.handleGetStats)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listTemplatesToolName,
		Description: listTemplatesDescription,
	}, s.handleListTemplates)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        analyzeToolName,
		Description: analyzeDescription,
	}, s.handleAnalyze)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves a single session over transport until ctx is done or the peer
// disconnects. The mcp command passes a stdio transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// errorResult reports a tool failure to the calling agent. Tool failures are
// results, not protocol errors.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// jsonResult serializes the structured output as JSON for the text field.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility
func jsonResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
