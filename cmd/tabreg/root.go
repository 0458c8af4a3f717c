package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabreg/config"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// cli holds the global flags shared by every subcommand.
type cli struct {
	out io.Writer

	cfgFile  string
	logLevel string
	noColor  bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "tabreg",
		Short:         "Explore a tabular dataset and fit a linear regression on it",
		Long:          `tabreg loads a CSV or Excel file, prints an exploratory analysis, draws plots, fills missing values, encodes categories, splits the rows and evaluates an ordinary least squares model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringVar(&c.cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+")")
	f.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	f.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRunCmd(c), newExploreCmd(c), newInitCmd(c))
	return root
}

// loadConfig reads the configuration, applies flag overrides and installs
// the log provider.
func (c *cli) loadConfig(cmd *cobra.Command, dataPath string) (*config.Config, error) {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("no-color") {
		cfg.NoColor = c.noColor
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.NoColor {
		color.NoColor = true
	}
	provider, err := log.NewProvider(cfg.LogFormat, os.Stderr, log.ToLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	log.SetProvider(provider)
	return cfg, nil
}
