// Package replyscopecmder
package replyscopecmder

import (
	"github.com/spf13/cobra"

	analyzecmder "github.com/replyscope/replyscope/cmd/replyscope/analyze"
	commentscmder "github.com/replyscope/replyscope/cmd/replyscope/comments"
	configcmder "github.com/replyscope/replyscope/cmd/replyscope/config"
	exportcmder "github.com/replyscope/replyscope/cmd/replyscope/export"
	historycmder "github.com/replyscope/replyscope/cmd/replyscope/history"
	initcmder "github.com/replyscope/replyscope/cmd/replyscope/init"
	mcpcmder "github.com/replyscope/replyscope/cmd/replyscope/mcp"
	scrapecmder "github.com/replyscope/replyscope/cmd/replyscope/scrape"
	statscmder "github.com/replyscope/replyscope/cmd/replyscope/stats"
	statuscmder "github.com/replyscope/replyscope/cmd/replyscope/status"
	synccmder "github.com/replyscope/replyscope/cmd/replyscope/sync"
	taskscmder "github.com/replyscope/replyscope/cmd/replyscope/tasks"
	templatescmder "github.com/replyscope/replyscope/cmd/replyscope/templates"
	usecmder "github.com/replyscope/replyscope/cmd/replyscope/use"
	versioncmder "github.com/replyscope/replyscope/cmd/replyscope/version"
	videocmder "github.com/replyscope/replyscope/cmd/replyscope/video"
	watchcmder "github.com/replyscope/replyscope/cmd/replyscope/watch"
)

const replyscopeLongDesc string = `Replyscope scrapes video comments and analyzes them with AI.

It talks to a replyscope backend. Start with:
  replyscope init                 Create a .replyscope/ config directory
  replyscope scrape <video> -w    Scrape a video's comments and watch progress
  replyscope use <task-id>        Select the task other commands act on
  replyscope analyze --template sentiment
                                  Stream an analysis of the selected task`

const replyscopeShortDesc string = "Replyscope - Video Comment Analysis"

func NewReplyscopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "replyscope",
		Short:         replyscopeShortDesc,
		Long:          replyscopeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .replyscope/ config directory")

	// Setup
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	// Scraping
	cmd.AddCommand(scrapecmder.NewScrapeCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(taskscmder.NewTasksCmd())
	cmd.AddCommand(usecmder.NewUseCmd())
	cmd.AddCommand(videocmder.NewVideoCmd())

	// Results
	cmd.AddCommand(commentscmder.NewCommentsCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())

	// Analysis
	cmd.AddCommand(templatescmder.NewTemplatesCmd())
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(synccmder.NewSyncCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())

	return cmd
}
