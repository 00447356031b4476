package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docfields/internal/entity"
)

func newTemplatesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage extraction templates",
		Long: `Manage extraction templates.

Templates are stored in the database. import and export use YAML files with
the same shape as the API's JSON.`,
	}
	cmd.AddCommand(
		newTemplatesListCmd(e),
		newTemplatesShowCmd(e),
		newTemplatesDeleteCmd(e),
		newTemplatesUseCmd(e),
		newTemplatesImportCmd(e),
		newTemplatesExportCmd(e),
	)
	return cmd
}

func newTemplatesListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates; the active one is marked with *",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := e.app.Templates.List(ctx)
			if err != nil {
				return err
			}
			active, err := e.app.Templates.GetActiveID(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tTYPE\tFIELDS")
			for _, t := range list {
				mark := ""
				if t.ID == active {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n", mark, t.ID, t.Name, t.DocumentType, len(t.EnabledFields()), len(t.Fields))
			}
			return tw.Flush()
		},
	}
}

func newTemplatesShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a template as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := e.app.Templates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(tpl); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newTemplatesDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Templates.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newTemplatesUseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make a template the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Templates.SetActiveID(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active template: %s\n", args[0])
			return nil
		},
	}
}

func newTemplatesImportCmd(e *env) *cobra.Command {
	var keepID bool
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update a template from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var tpl entity.Template
			if err := yaml.Unmarshal(data, &tpl); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if !keepID {
				tpl.ID = ""
			}
			saved, err := e.app.Templates.Save(cmd.Context(), &tpl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", saved.ID, saved.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepID, "keep-id", false, "keep the file's id, overwriting that template if it exists")
	return cmd
}

func newTemplatesExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a template to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := e.app.Templates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(tpl)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
