// Package cmd provides the quotectl commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/pricepilot/internal/logging"
	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

type options struct {
	ratesFile string
	verbose   bool
	log       *zap.Logger
}

// NewRootCommand builds the quotectl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Price software development quotes from the command line",
		Long: `quotectl prices a saved quote draft with a rate configuration and
renders it as text or an XLSX workbook.

Examples:
  quotectl quote draft.json
  quotectl quote --rates rates.yaml --xlsx --out quote.xlsx draft.json
  quotectl rates show > rates.yaml
  quotectl rates derive --monthly 52800 --days 22`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.DefaultConfig()
			cfg.Level = "warn"
			if opts.verbose {
				cfg.Level = "debug"
			}
			opts.log = logging.Must(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.ratesFile, "rates", "", "rate configuration YAML (default is the built-in rates)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newQuoteCommand(opts))
	root.AddCommand(newRatesCommand(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
		return err
	}
	return nil
}

func (o *options) loadRates() (*ratecfg.Config, error) {
	if o.ratesFile == "" {
		o.log.Debug("using built-in rates")
		return ratecfg.Defaults(), nil
	}

	f, err := os.Open(o.ratesFile)
	if err != nil {
		return nil, fmt.Errorf("open rates file: %w", err)
	}
	defer f.Close()

	cfg, err := ratecfg.DecodeYAML(f)
	if err != nil {
		return nil, err
	}
	o.log.Debug("loaded rates", zap.String("file", o.ratesFile), zap.Float64("base_hourly_rate", cfg.BaseHourlyRate))
	return cfg, nil
}
