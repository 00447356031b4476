package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/llm"
	"github.com/joseph-ayodele/docfields/internal/pipeline"
)

type extractFlags struct {
	template   string
	noValidate bool
	strict     bool
	asJSON     bool
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "template id (default: the active template)")
	cmd.Flags().BoolVar(&f.noValidate, "no-validate", false, "skip the document type check")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "ask the model to leave uncertain fields empty")
}

func (f *extractFlags) options() pipeline.ExtractOptions {
	return pipeline.ExtractOptions{
		ValidateDocumentType: !f.noValidate,
		Prompt:               llm.PromptOptions{StrictMode: f.strict},
	}
}

// resolveTemplate returns the named template, or the active one.
func (e *env) resolveTemplate(ctx context.Context, id string) (*entity.Template, error) {
	if id == "" {
		active, err := e.app.Templates.GetActiveID(ctx)
		if err != nil {
			return nil, err
		}
		id = active
	}
	return e.app.Templates.Get(ctx, id)
}

func newExtractCmd(e *env) *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract template fields from one document",
		Example: `  docextract extract invoice.pdf
  docextract extract invoice.pdf --template 3f1c... --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			tpl, err := e.resolveTemplate(ctx, flags.template)
			if err != nil {
				return err
			}
			out, err := e.app.Processor.Extract(ctx, doc, tpl, flags.options())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return printOutcome(cmd.OutOrStdout(), tpl, out)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printOutcome(w io.Writer, tpl *entity.Template, out *pipeline.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range tpl.EnabledFields() {
		fmt.Fprintf(tw, "%s\t%s\n", f.Name, out.Data[f.Key])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v := out.Validation; v != nil {
		fmt.Fprintf(w, "\ndocument type: %s (%s, confidence %d)\n", v.DetectedType, v.Status, v.Confidence)
	}
	for _, warning := range out.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
