package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/config"
)

func newMigrateCmd(cfg func() *config.Config, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := d.migrate(cfg()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied from %s\n", cfg().MigrationsPath)
			return nil
		},
	}
}
