package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/infrastructure"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/services"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configFile string
	dataset    string
	verbose    bool
	noColor    bool
}

// NewRootCommand builds the credittrends command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "credittrends",
		Short:   "Explore US credit card trends from the Federal Reserve quarterly dataset",
		Version: contracts.GetFullVersionString(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: config.yaml or configs/config.yaml)")
	flags.StringVar(&opts.dataset, "dataset", "", "dataset file or directory of releases, overrides the configured path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newKPIsCommand(opts))
	rootCmd.AddCommand(newSeriesCommand(opts))
	rootCmd.AddCommand(newSummaryCommand(opts))
	rootCmd.AddCommand(newInfoCommand(opts))
	rootCmd.AddCommand(newDatasetsCommand())
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newChartCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// PrintError reports a failed command on w
func PrintError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.dataset != "" {
		cfg.Dataset.Path = o.dataset
	}
	return cfg, nil
}

// newService wires a dashboard service for one-shot commands. Logs go to
// stderr and stay quiet below warnings unless --verbose is set.
func (o *globalOptions) newService(cmd *cobra.Command) (*services.DashboardService, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Output = "console"
	logCfg.Format = "text"
	logCfg.Level = "warn"
	if o.verbose {
		logCfg.Level = "debug"
	}

	logger, _, err := infrastructure.NewLogger(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger = logger.With(slog.String("command", cmd.Name()))

	return services.NewDashboardService(cfg, nil, nil, nil, logger), nil
}
