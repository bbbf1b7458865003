// Package analyzecmder provides the analyze command for streaming an AI
// analysis of a task's comments to the terminal.
package analyzecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
	"github.com/replyscope/replyscope/pkg/recorder"
	"github.com/replyscope/replyscope/pkg/sse"
	"github.com/replyscope/replyscope/pkg/storage"
)

type analyzeCommander struct {
	taskID     string
	templateID string
	prompt     string
	preview    bool
	save       bool
	output     string
	noRecord   bool
	noStream   bool

	target       string
	timeout      string
	protocol     string
	commentLimit uint

	storageProvider string
	sqlitePath      string
	postgresDSN     string
	eventsProvider  string
	eventsBrokers   string
	eventsTopic     string

	cfg       *config.Config
	configDir string
	selection *dotdir.Selection

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const analyzeLongDesc string = `Analyze a task's comments with a prompt template.

The analysis is streamed to the terminal as it is generated. On a terminal
the finished text is then rendered as markdown. Pick a template with
--template, or write your own prompt with --prompt. Without either the
template remembered by "replyscope use" is used.

Finished analyses are recorded in the local history (see "replyscope
history") unless --no-record is given. Use --save to also write the markdown
to analysis_<task>_<timestamp>.md, or --output to pick the path.

Examples:
  replyscope analyze --template sentiment
  replyscope analyze task-123 --prompt "What do viewers ask for?"
  replyscope analyze --template topics --preview
  replyscope analyze --template sentiment --protocol v1 --save
  replyscope analyze --template sentiment --no-stream`

const analyzeShortDesc string = "Stream an AI analysis of the comments"

func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze [task-id]",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]string, 0, len(config.ConnectionFlags)+len(config.RecordingFlags)+2)
			keys = append(keys, config.ConnectionFlags...)
			keys = append(keys, config.FlagProtocol, config.FlagCommentLimit)
			keys = append(keys, config.RecordingFlags...)

			cfg, err := cmdutil.LoadConfig(cmd, keys)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.configDir = cmdutil.ConfigDir(cmd)

			explicit := ""
			if len(args) == 1 {
				explicit = args[0]
			}
			cmder.taskID, err = cmdutil.ResolveTaskID(cmd, explicit)
			if err != nil {
				return err
			}

			cmder.selection, err = dotdir.NewManager().LoadSelection(cmder.configDir)
			if err != nil {
				return err
			}

			return cmder.resolveTemplate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.templateID, "template", "", "Analysis template ID (see \"replyscope templates\")")
	cmd.Flags().StringVar(&cmder.prompt, "prompt", "", "Custom prompt; implies the custom template")
	cmd.Flags().BoolVar(&cmder.preview, "preview", false, "Show the rendered prompt without running the analysis")
	cmd.Flags().BoolVar(&cmder.save, "save", false, "Write the analysis to analysis_<task>_<timestamp>.md")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write the analysis to this markdown file")
	cmd.Flags().BoolVar(&cmder.noRecord, "no-record", false, "Do not record the analysis in local history")
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the complete analysis instead of streaming it")

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

// resolveTemplate settles the template: a prompt means the custom template,
// then the flag, then the template remembered with the selected task.
func (c *analyzeCommander) resolveTemplate() error {
	c.prompt = strings.TrimSpace(c.prompt)

	switch {
	case c.prompt != "":
		if c.templateID != "" && c.templateID != client.CustomTemplateID {
			return fmt.Errorf("--prompt cannot be combined with --template %s", c.templateID)
		}
		c.templateID = client.CustomTemplateID

	case c.templateID == client.CustomTemplateID:
		return errors.New("the custom template needs a prompt: use --prompt")

	case c.templateID == "":
		if c.selection != nil && c.selection.TaskID == c.taskID && c.selection.TemplateID != "" {
			c.templateID = c.selection.TemplateID
		}
	}

	if c.templateID == "" {
		return errors.New("no template: use --template or --prompt")
	}
	return nil
}

func (c *analyzeCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	if c.preview {
		return c.runPreview(ctx, cl)
	}

	protocol, err := cmdutil.Protocol(c.cfg)
	if err != nil {
		return err
	}

	req := client.AnalyzeRequest{
		TaskID:       c.taskID,
		TemplateID:   c.templateID,
		CustomPrompt: c.prompt,
		CommentLimit: int(c.cfg.Analysis.CommentLimit),
	}

	c.logger.Debug("starting analysis",
		"task", c.taskID,
		"template", c.templateID,
		"protocol", protocol,
	)

	live := cliui.NewLiveText(c.out)
	start := time.Now()
	var content string
	if c.noStream {
		err = cliui.Step(c.out, "Analyzing "+c.taskID, func() error {
			res, err := cl.Analyze(ctx, req)
			if err == nil {
				content = res.Analysis
			}
			return err
		})
		if err == nil {
			live.Write(content)
		}
	} else {
		content, err = cl.StreamAnalysis(ctx, req, protocol, live.Write)
	}
	elapsed := time.Since(start)
	if err != nil {
		live.Replace("")
		return fmt.Errorf("analyzing %s: %w", c.taskID, err)
	}

	if strings.TrimSpace(content) == "" {
		live.Replace("")
		fmt.Fprintf(c.out, "  %s The analysis came back empty\n", cliui.WarnStyle.Render("!"))
		return nil
	}

	final := ""
	if cliui.IsTerminal(c.out) {
		rendered, err := cliui.RenderMarkdown(content)
		if err != nil {
			c.logger.Debug("rendering markdown", "error", err)
		}
		final = rendered
	}
	live.Replace(final)

	fmt.Fprintf(c.out, "\n  %s Analysis finished %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(fmt.Sprintf("(%s, %d chars)", cliui.FormatDuration(elapsed), len(content))),
	)

	if path := c.savePath(time.Now()); path != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("saving analysis: %w", err)
		}
		fmt.Fprintf(c.out, "  %s Saved %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(path))
	}

	if c.noRecord {
		return nil
	}
	return c.record(ctx, content, protocol, elapsed)
}

func (c *analyzeCommander) runPreview(ctx context.Context, cl *client.Client) error {
	if c.templateID == client.CustomTemplateID {
		fmt.Fprintf(c.out, "\n  %s\n\n%s\n\n", cliui.HeaderStyle.Render("Prompt"), c.prompt)
		return nil
	}

	preview, err := cl.Preview(ctx, client.PreviewRequest{TaskID: c.taskID, TemplateID: c.templateID})
	if err != nil {
		return fmt.Errorf("previewing %s: %w", c.templateID, err)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n%s\n\n",
		cliui.HeaderStyle.Render("Prompt"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d sample comments)", preview.Count)),
		preview.Prompt,
	)
	return nil
}

// savePath returns where to write the markdown, empty when not saving.
func (c *analyzeCommander) savePath(now time.Time) string {
	if c.output != "" {
		return c.output
	}
	if !c.save {
		return ""
	}
	return fmt.Sprintf("analysis_%s_%d.md", c.taskID, now.UnixMilli())
}

// record stores the analysis in local history. Failures are reported but do
// not fail the command; the analysis was already shown.
func (c *analyzeCommander) record(ctx context.Context, content string, protocol sse.Protocol, elapsed time.Duration) error {
	history, err := cmdutil.OpenHistory(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		c.logger.Warn("analysis not recorded", "error", err)
		return nil
	}

	rec := storage.NewAnalysisRecord(c.taskID, c.templateID, content)
	rec.CustomPrompt = c.prompt
	if !c.noStream {
		rec.Protocol = string(protocol)
	}
	if c.selection != nil && c.selection.TaskID == c.taskID {
		rec.VideoTitle = c.selection.VideoTitle
	}

	if !history.Recorder.Enqueue(recorder.Job{Analysis: rec, Duration: elapsed}) {
		c.logger.Warn("analysis not recorded: recorder queue full")
	}

	if err := history.Close(); err != nil {
		c.logger.Warn("closing history", "error", err)
	}

	stored, failed, _ := history.Recorder.Stats()
	if failed > 0 || stored == 0 {
		c.logger.Warn("analysis not recorded", "id", rec.ID)
		return nil
	}

	fmt.Fprintf(c.out, "  %s Recorded as %s\n", cliui.SuccessMark, cliui.IDStyle.Render(rec.ID))
	return nil
}
