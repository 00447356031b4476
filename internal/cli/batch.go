package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/async"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/export"
)

func newBatchCmd(e *env) *cobra.Command {
	var (
		flags       extractFlags
		concurrency int
		timeout     time.Duration
		out         string
	)
	cmd := &cobra.Command{
		Use:   "batch <file|dir>...",
		Short: "Extract fields from many documents concurrently",
		Long: `Runs every document through extraction with bounded concurrency.
Directories are expanded to the PDF, .txt and .md files they contain.
With --out the successful rows are written as csv, tsv or xlsx, chosen by
the file extension.`,
		Example: `  docextract batch ./invoices --out invoices.xlsx
  docextract batch a.pdf b.pdf --concurrency 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var format export.Format
			if out != "" {
				f, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(out), "."))
				if err != nil {
					return err
				}
				format = f
			}

			docs, err := collectDocuments(args)
			if err != nil {
				return err
			}
			tpl, err := e.resolveTemplate(ctx, flags.template)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			runner := async.NewBatchRunner(e.app.Processor, e.app.Logger,
				async.WithConcurrency(concurrency),
				async.WithDocumentTimeout(timeout),
				async.WithExtractOptions(flags.options()),
				async.WithObserver(func(ev async.StatusEvent) {
					if !ev.Status.Terminal() {
						return
					}
					line := fmt.Sprintf("[%d/%d] %s %s", ev.Completed, ev.Total, ev.FileName, ev.Status)
					if ev.Result.Error != "" {
						line += ": " + ev.Result.Error
					}
					fmt.Fprintln(stderr, line)
				}),
			)
			results := runner.Run(ctx, docs, tpl)

			if out == "" {
				return printResults(cmd, tpl, results)
			}
			data, err := e.app.Export.Export(ctx, format, results, tpl, export.Options{IncludeHeaders: true, IncludeFilename: true})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", constants.DefaultBatchConcurrency, "documents processed at once")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-document timeout (0 means none)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write successful rows to this .csv, .tsv or .xlsx file")
	return cmd
}

func printResults(cmd *cobra.Command, tpl *entity.Template, results []entity.ExtractionResult) error {
	fields := tpl.EnabledFields()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	header := []string{"FILE", "STATUS"}
	for _, f := range fields {
		header = append(header, f.Name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range results {
		row := []string{r.FileName, string(r.Status)}
		for _, f := range fields {
			row = append(row, r.Data[f.Key])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
