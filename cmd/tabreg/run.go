package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabreg/pipeline"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		weightsOut string
		noPlots    bool
		scaler     string
	)
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run the whole pipeline, from loading to evaluation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, firstArg(args))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("weights-out") {
				cfg.WeightsOut = weightsOut
			}
			if noPlots {
				cfg.PlotsEnabled = false
			}
			if cmd.Flags().Changed("scaler") {
				cfg.Scaler = scaler
			}

			r, err := pipeline.NewRunner(cfg, c.out)
			if err != nil {
				return err
			}
			res, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "\n✓ Run %s finished: MAE %.4f, R² %.4f\n", res.RunID, res.Evaluation.MAE, res.Evaluation.R2)
			return nil
		},
	}
	cmd.Flags().StringVar(&weightsOut, "weights-out", "", "write the fitted coefficients as JSON to this path")
	cmd.Flags().BoolVar(&noPlots, "no-plots", false, "skip every plot")
	cmd.Flags().StringVar(&scaler, "scaler", "", "feature scaling: none, standard, minmax")
	return cmd
}

func newExploreCmd(c *cli) *cobra.Command {
	var noPlots bool
	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Print the exploratory analysis and draw the raw-data plots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, firstArg(args))
			if err != nil {
				return err
			}
			if noPlots {
				cfg.PlotsEnabled = false
			}
			r, err := pipeline.NewRunner(cfg, c.out)
			if err != nil {
				return err
			}
			_, err = r.Explore(cmd.Context())
			return err
		},
	}
	cmd.Flags().BoolVar(&noPlots, "no-plots", false, "skip every plot")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
