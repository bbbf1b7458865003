package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/replyscope/replyscope/pkg/client"
)

var (
	listTasksToolName    = "list_tasks"
	listTasksDescription = "List comment scrape tasks known to the backend with per-status counts. Optionally filter by status (running, completed, failed)."

	getCommentsToolName    = "get_comments"
	getCommentsDescription = "Fetch scraped comments of a task, optionally sorted (time_desc, time_asc, likes_desc) and filtered by keyword. Replies are nested under their parent comment."

	getStatsToolName    = "get_stats"
	getStatsDescription = "Get aggregate statistics of a completed task: comments per day, like buckets and top keywords."

	listTemplatesToolName    = "list_templates"
	listTemplatesDescription = "List the analysis prompt templates accepted by analyze_comments."

	defaultToolCommentLimit = 50
)

// ListTasksInput represents the input arguments for the list_tasks tool.
type ListTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"only return tasks with this status: running, completed, failed or all"`
}

// ListTasksOutput represents the output of the list_tasks tool.
type ListTasksOutput struct {
	Total     int           `json:"total"`
	Running   int           `json:"running"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Tasks     []client.Task `json:"tasks"`
}

func (s *Server) handleListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	s.config.Logger.Debug("MCP list_tasks request", "status", input.Status)

	tasks, err := s.config.Client.Tasks(ctx)
	if err != nil {
		s.config.Logger.Error("failed to list tasks", "error", err)
		return errorResult("Failed to list tasks: %v", err), ListTasksOutput{}, nil
	}

	counts := client.CountByStatus(tasks)
	filtered := client.FilterTasks(tasks, input.Status)
	if filtered == nil {
		filtered = []client.Task{}
	}

	output := ListTasksOutput{
		Total:     counts.Total,
		Running:   counts.Running,
		Completed: counts.Completed,
		Failed:    counts.Failed,
		Tasks:     filtered,
	}
	return jsonResult(output), output, nil
}

// GetCommentsInput represents the input arguments for the get_comments tool.
type GetCommentsInput struct {
	TaskID  string `json:"task_id" jsonschema:"the scrape task ID"`
	Sort    string `json:"sort,omitempty" jsonschema:"sort order: time_desc, time_asc or likes_desc"`
	Keyword string `json:"keyword,omitempty" jsonschema:"only return comments containing this keyword"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of comments to return (default: 50)"`
}

// GetCommentsOutput represents the output of the get_comments tool.
type GetCommentsOutput struct {
	TaskID     string           `json:"task_id"`
	TotalCount int              `json:"total_count"`
	Comments   []client.Comment `json:"comments"`
}

func (s *Server) handleGetComments(ctx context.Context, _ *mcp.CallToolRequest, input GetCommentsInput) (*mcp.CallToolResult, GetCommentsOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), GetCommentsOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolCommentLimit
	}

	s.config.Logger.Debug("MCP get_comments request",
		"task_id", input.TaskID,
		"sort", input.Sort,
		"keyword", input.Keyword,
		"limit", limit,
	)

	result, err := s.config.Client.Results(ctx, input.TaskID, client.ResultQuery{
		Sort:    input.Sort,
		Keyword: input.Keyword,
		Limit:   limit,
	})
	if err != nil {
		return errorResult("Failed to fetch comments: %v", err), GetCommentsOutput{}, nil
	}

	comments := result.Comments
	if comments == nil {
		comments = []client.Comment{}
	}

	output := GetCommentsOutput{
		TaskID:     input.TaskID,
		TotalCount: result.TotalCount,
		Comments:   comments,
	}
	return jsonResult(output), output, nil
}

// GetStatsInput represents the input arguments for the get_stats tool.
type GetStatsInput struct {
	TaskID string `json:"task_id" jsonschema:"the scrape task ID"`
}

func (s *Server) handleGetStats(ctx context.Context, _ *mcp.CallToolRequest, input GetStatsInput) (*mcp.CallToolResult, client.Stats, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), client.Stats{}, nil
	}

	stats, err := s.config.Client.Stats(ctx, input.TaskID)
	if err != nil {
		return errorResult("Failed to load stats: %v", err), client.Stats{}, nil
	}

	return jsonResult(stats), *stats, nil
}

// ListTemplatesInput takes no arguments.
type ListTemplatesInput struct{}

// ListTemplatesOutput represents the output of the list_templates tool.
type ListTemplatesOutput struct {
	Templates []client.Template `json:"templates"`
}

func (s *Server) handleListTemplates(ctx context.Context, _ *mcp.CallToolRequest, _ ListTemplatesInput) (*mcp.CallToolResult, ListTemplatesOutput, error) {
	templates, err := s.config.Client.Templates(ctx)
	if err != nil {
		return errorResult("Failed to list templates: %v", err), ListTemplatesOutput{}, nil
	}

	if templates == nil {
		templates = []client.Template{}
	}

	output := ListTemplatesOutput{Templates: templates}
	return jsonResult(output), output, nil
}
