package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/recorder"
	"github.com/replyscope/replyscope/pkg/storage"
)

var (
	analyzeToolName    = "analyze_comments"
	analyzeDescription = "Run an AI analysis over a completed task's comments using a prompt template (see list_templates) or a custom prompt, and return the full analysis text in markdown."
)

// AnalyzeInput represents the input arguments for the analyze_comments tool.
type AnalyzeInput struct {
	TaskID       string `json:"task_id" jsonschema:"the completed scrape task ID"`
	TemplateID   string `json:"template_id" jsonschema:"template ID from list_templates, or custom together with custom_prompt"`
	CustomPrompt string `json:"custom_prompt,omitempty" jsonschema:"prompt to use when template_id is custom"`
	CommentLimit int    `json:"comment_limit,omitempty" jsonschema:"maximum number of comments sent to the model"`
}

// AnalyzeOutput represents the output of the analyze_comments tool.
type AnalyzeOutput struct {
	TaskID     string `json:"task_id"`
	TemplateID string `json:"template_id"`
	Analysis   string `json:"analysis"`

	// RecordID is set when the analysis was queued for local history.
	RecordID string `json:"record_id,omitempty"`
}

func (s *Server) handleAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	req := client.AnalyzeRequest{
		TaskID:       input.TaskID,
		TemplateID:   input.TemplateID,
		CustomPrompt: input.CustomPrompt,
		CommentLimit: input.CommentLimit,
	}
	if req.CommentLimit <= 0 {
		req.CommentLimit = s.config.CommentLimit
	}

	log := s.config.Logger.With("task_id", req.TaskID, "template_id", req.TemplateID)
	log.Debug("MCP analyze_comments request")

	start := time.Now()
	text, err := s.config.Client.StreamAnalysis(ctx, req, s.config.Protocol, nil)
	if err != nil {
		log.Error("analysis failed", "error", err)
		return errorResult("Analysis failed: %v", err), AnalyzeOutput{}, nil
	}

	output := AnalyzeOutput{
		TaskID:     req.TaskID,
		TemplateID: req.TemplateID,
		Analysis:   text,
	}

	if s.config.Recorder != nil {
		rec := storage.NewAnalysisRecord(req.TaskID, req.TemplateID, text)
		rec.CustomPrompt = req.CustomPrompt
		rec.Protocol = string(s.config.Protocol)
		if s.config.Recorder.Enqueue(recorder.Job{Analysis: rec, Duration: time.Since(start)}) {
			output.RecordID = rec.ID
		}
	}

	return jsonResult(output), output, nil
}
