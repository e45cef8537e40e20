package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/costrisk-sim/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "costrisk-sim",
	Short: "Monte Carlo project cost and risk forecaster",
	Long:  "Evolves a project's CAPEX and risk register forward through a checkpointed Monte Carlo simulation, tracking cost percentiles as mitigations land and risks are logged.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		zap.L().Debug("configuration loaded",
			zap.String("simulation.frequency", cfg.Simulation.Frequency),
			zap.Int("simulation.n_iterations", cfg.Simulation.NIterations),
			zap.Int("simulation.max_concurrency", cfg.Simulation.MaxConcurrency),
		)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
