package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Template store maintenance",
	}
	var timeout time.Duration
	health := &cobra.Command{
		Use:   "health",
		Short: "Ping the template store and count templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.app.DB.HealthCheck(ctx, timeout); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			list, err := e.app.Templates.List(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "DB health: OK (%s, %d templates)\n", e.app.DB.Dialect(), len(list))
			return nil
		},
	}
	health.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	cmd.AddCommand(health)
	return cmd
}
