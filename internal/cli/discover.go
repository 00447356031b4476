package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docfields/internal/discovery"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

func newDiscoverCmd(e *env) *cobra.Command {
	var (
		intent     string
		templateID string
		includeNew bool
		save       bool
		activate   bool
	)
	cmd := &cobra.Command{
		Use:   "discover <file|dir>...",
		Short: "Propose template fields from sample documents",
		Long: `Sends up to 10 sample documents to the model and prints the fields it
finds, with how many samples each appeared in.

With --template the existing fields are refreshed with the new evidence
instead (edit mode). --save turns the result into a template.`,
		Example: `  docextract discover ./samples --intent "track supplier invoices" --save
  docextract discover ./samples --intent "invoices" --template 3f1c... --include-new --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := collectDocuments(args)
			if err != nil {
				return err
			}

			var existing *entity.Template
			if templateID != "" {
				if existing, err = e.app.Templates.Get(ctx, templateID); err != nil {
					return err
				}
			}

			res, err := e.app.Discovery.Discover(ctx, docs, intent)
			if err != nil {
				return err
			}
			fields := res.Fields
			if existing != nil {
				fields = discovery.Merge(existing, fields, discovery.MergeOptions{IncludeNew: includeNew})
			}
			if err := printDiscovered(cmd, res.SamplesAnalyzed, fields); err != nil {
				return err
			}
			if !save {
				return nil
			}

			tpl, err := discovery.BuildTemplate(existing, fields, intent, res.SamplesAnalyzed, time.Now())
			if err != nil {
				return err
			}
			saved, err := e.app.Templates.Save(ctx, tpl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nsaved template %s (%s)\n", saved.ID, saved.Name)
			if activate {
				return e.app.Templates.SetActiveID(ctx, saved.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&intent, "intent", "i", "", "what you want to extract, in plain words (required)")
	cmd.Flags().StringVarP(&templateID, "template", "t", "", "refresh this template's fields instead of proposing new ones")
	cmd.Flags().BoolVar(&includeNew, "include-new", false, "in edit mode, also add fields the template lacks")
	cmd.Flags().BoolVar(&save, "save", false, "save the result as a template")
	cmd.Flags().BoolVar(&activate, "activate", false, "make the saved template active")
	_ = cmd.MarkFlagRequired("intent")
	return cmd
}

func printDiscovered(cmd *cobra.Command, samples int, fields []entity.DiscoveredField) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Analyzed %d samples, %d fields:\n\n", samples, len(fields))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKEY\tTYPE\tFOUND\tCONFIDENCE\tEXAMPLE")
	for _, f := range fields {
		example := ""
		for _, sv := range f.SampleValues {
			if strings.TrimSpace(sv.Value) != "" {
				example = sv.Value
				break
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			f.SuggestedName, f.SuggestedKey, f.SuggestedType, f.FoundInSamples, samples, f.Confidence, example)
	}
	return tw.Flush()
}
