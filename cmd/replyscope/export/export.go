// Package exportcmder provides the export command for downloading a task's
// comments as a CSV or Excel file.
package exportcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replyscope/replyscope/cmd/replyscope/cmdutil"
	commentscmder "github.com/replyscope/replyscope/cmd/replyscope/comments"
	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/config"
)

// Formats are the export formats the backend writes.
var Formats = []string{"csv", "xlsx"}

type exportCommander struct {
	taskID   string
	format   string
	sort     string
	filename string
	output   string

	target  string
	timeout string
	cfg     *config.Config

	out    io.Writer
	debug  bool
	logger *slog.Logger
}

const exportLongDesc string = `Export a task's comments to a file.

The backend writes the file, then it is downloaded into the current
directory under the name the backend chose. Use --output to pick another
path, or "-" to write to stdout.

Without an argument the selected task is exported.

Examples:
  replyscope export
  replyscope export task-123 --format xlsx --sort like_desc
  replyscope export --filename desk-comments --output ./exports/
  replyscope export --output - > comments.csv`

const exportShortDesc string = "Export comments to CSV or Excel"

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export [task-id]",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cmder.format = normalizeFormat(cmder.format)
			if !validFormat(cmder.format) {
				return fmt.Errorf("invalid format %q (available: %s)", cmder.format, strings.Join(Formats, ", "))
			}

			cfg, err := cmdutil.LoadConfig(cmd, config.ConnectionFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg

			explicit := ""
			if len(args) == 1 {
				explicit = args[0]
			}
			cmder.taskID, err = cmdutil.ResolveTaskID(cmd, explicit)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug = cmdutil.Debug(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.format, "format", "f", "csv", "Export format ("+strings.Join(Formats, ", ")+")")
	cmd.Flags().StringVar(&cmder.sort, "sort", "", "Order ("+strings.Join(commentscmder.SortOrders, ", ")+")")
	cmd.Flags().StringVar(&cmder.filename, "filename", "", "Base name for the exported file")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", `Output file or directory ("-" for stdout)`)
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

// normalizeFormat maps "excel" onto "xlsx" the way the backend does.
func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "excel" {
		return "xlsx"
	}
	return format
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (c *exportCommander) run(ctx context.Context) error {
	c.logger = cmdutil.NewLogger(c.debug)

	cl, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	file, err := cl.Export(ctx, client.ExportRequest{
		TaskID:   c.taskID,
		Format:   c.format,
		Sort:     c.sort,
		Filename: c.filename,
	})
	if err != nil {
		return fmt.Errorf("exporting %s: %w", c.taskID, err)
	}

	if c.output == "-" {
		_, err := cl.Download(ctx, file.DownloadURL, c.out)
		return err
	}

	path, err := outputPath(c.output, file.Filename)
	if err != nil {
		return err
	}

	var n int64
	err = cliui.Step(c.out, "Downloading "+filepath.Base(path), func() error {
		n, err = download(ctx, cl, file.DownloadURL, path)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Wrote %s %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(path),
		cliui.DimStyle.Render(fmt.Sprintf("(%d bytes)", n)),
	)
	return nil
}

// outputPath resolves --output against the backend's file name. An empty
// output or an existing directory keeps the backend's name.
func outputPath(output, filename string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("backend returned an invalid file name %q", filename)
	}

	if output == "" {
		return name, nil
	}

	if strings.HasSuffix(output, string(filepath.Separator)) {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		return filepath.Join(output, name), nil
	}

	info, err := os.Stat(output)
	if err == nil && info.IsDir() {
		return filepath.Join(output, name), nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking output path: %w", err)
	}

	return output, nil
}

// download writes the export to path, removing a partial file on failure.
func download(ctx context.Context, cl *client.Client, url, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	n, err := cl.Download(ctx, url, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", path, closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}

	return n, nil
}
