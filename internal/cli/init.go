package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store and upload directory",
		Long: `Create missing credential and application files (or tables for the
sqlite and postgres backends) and the upload directory. Existing data
is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.cfg
			a, err := openApp(cmd.Context(), cfg, rootOpts.log)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.initialize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s store, uploads in %s\n", cfg.StoreBackend, a.uploads.Root())
			return nil
		},
	}
}
