package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

func newRatesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect rate configurations",
	}
	cmd.AddCommand(newRatesShowCommand(opts))
	cmd.AddCommand(newRatesDeriveCommand())
	return cmd
}

func newRatesShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the rate configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadRates()
			if err != nil {
				return err
			}
			return ratecfg.EncodeYAML(cmd.OutOrStdout(), cfg)
		},
	}
}

func newRatesDeriveCommand() *cobra.Command {
	var (
		monthly  float64
		days     int
		overtime float64
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive an hourly rate from a monthly salary",
		Long: `Derive an hourly rate from a monthly salary assuming eight-hour days.

An overtime multiplier above zero is folded into the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if monthly < 0 || overtime < 0 {
				return fmt.Errorf("monthly salary and overtime multiplier must be non-negative")
			}

			out := cmd.OutOrStdout()
			hourly := ratecfg.DeriveHourlyRate(monthly, days)
			fmt.Fprintf(out, "hourly rate: %.2f\n", hourly)
			if overtime > 0 {
				totalColor.Fprintf(out, "effective rate: %.2f\n", ratecfg.EffectiveHourlyRate(hourly, overtime))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&monthly, "monthly", 0, "monthly salary")
	cmd.Flags().IntVar(&days, "days", 22, "working days per month")
	cmd.Flags().Float64Var(&overtime, "overtime", 0, "overtime multiplier, e.g. 1.33")
	_ = cmd.MarkFlagRequired("monthly")
	return cmd
}
