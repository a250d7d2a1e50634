// Package cli wires configuration, storage and the HTTP server into the
// leaveportal command.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"leaveportal/internal/config"
	"leaveportal/internal/logging"
)

// RootOptions holds global flags and what PersistentPreRunE derives from
// them.
type RootOptions struct {
	ConfigPath string

	cfg config.App
	log *slog.Logger
}

// NewRootCommand creates the leaveportal command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "leaveportal",
		Short: "Student leave application portal",
		Long: `Leave portal for students and heads of department.

Students register, apply for leave with an optional document and track
decisions. HODs review every application and download attachments.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath == "" {
				opts.ConfigPath = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.LoadFile(opts.ConfigPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.LogLevel,
				JSON:   cfg.LogJSON,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file, defaults to $CONFIG_FILE (environment variables override it)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))

	return cmd
}
