package commands

import (
	"github.com/spf13/cobra"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/app"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}

			application, err := app.NewApplication(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}
