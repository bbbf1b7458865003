// Package templatescmder provides the templates command for listing analysis
// templates.
package templatescmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/utils"
)

type templatesCommander struct {
	prompts bool

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const templatesLongDesc string = `List the analysis templates offered by the backend.

The template ID is what "replyscope analyze --template" takes. The custom
template runs your own prompt given with --prompt.

Examples:
  replyscope templates
  replyscope templates --prompts`

const templatesShortDesc string = "List analysis templates"

func NewTemplatesCmd() *cobra.Command {
	cmder := &templatesCommander{}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: templatesShortDesc,
		Long:  templatesLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&cmder.prompts, "prompts", false, "Also print each template's prompt")
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *templatesCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	templates, err := cl.Templates(ctx)
	if err != nil {
		return fmt.Errorf("listing templates: %w", err)
	}

	if len(templates) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No templates available."))
		return nil
	}

	if !c.prompts {
		rows := make([][]string, 0, len(templates))
		for _, t := range templates {
			rows = append(rows, []string{t.ID, t.Name, utils.Truncate(t.Description, 50)})
		}
		fmt.Fprintln(c.out, cliui.Table(c.out, []string{"ID", "NAME", "DESCRIPTION"}, rows))
		return nil
	}

	for _, t := range templates {
		fmt.Fprintf(c.out, "\n  %s %s\n", cliui.NameStyle.Render(t.Name), cliui.IDStyle.Render(t.ID))
		if t.Description != "" {
			fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render(t.Description))
		}
		if t.ID == client.CustomTemplateID {
			fmt.Fprintf(c.out, "  %s\n", cliui.PreviewStyle.Render("(your prompt)"))
			continue
		}
		if t.Prompt != "" {
			fmt.Fprintf(c.out, "\n%s\n", t.Prompt)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}
