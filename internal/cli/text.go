package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTextCmd(e *env) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "text <file.pdf>",
		Short: "Print the text layer the model would see for a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if doc.HasText() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
				return err
			}
			res, err := e.app.Text.Extract(cmd.Context(), doc.Content)
			if err != nil {
				return fmt.Errorf("text extraction failed: %w", err)
			}
			if stats {
				fmt.Fprintf(cmd.ErrOrStderr(), "method=%s pages=%d bytes=%d duration_ms=%d\n",
					res.Method, res.Pages, len(res.Text), res.Duration.Milliseconds())
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "print page and size statistics to stderr")
	return cmd
}
