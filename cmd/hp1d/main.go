package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/hp1d/config"
	"github.com/notargets/hp1d/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hp1d",
	Short: "hp-adaptive finite elements in one dimension",
	Long: `hp1d solves first-order ODE systems with automatic hp-adaptivity driven by
fast trial refinement, and neutron diffusion eigenvalue problems by source
iteration.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults when empty)")

	odeCmd.Flags().StringVar(&odeSystem, "system", "riccati", "ODE system: riccati or oscillator")
	odeCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the linearized solution to this file")
	neutronicsCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the normalized flux to this file")

	rootCmd.AddCommand(odeCmd)
	rootCmd.AddCommand(neutronicsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("run failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
