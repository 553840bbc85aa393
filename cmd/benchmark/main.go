package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dborchard/cometmem/cmd/benchmark/lotsaa"
	"github.com/dborchard/cometmem/pkg/config"
	"github.com/dborchard/cometmem/pkg/y/logger"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Load generator for the cometmem memtable engine",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run concurrent writers and range scanners against an in-memory engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.FromFile(configPath); err != nil {
				return err
			}
		}
		if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync()

		lotsaa.Output = cmd.OutOrStdout()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := Run(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), " I = %d R = %d M = %d\n", res.Inserts, res.Reads, res.Misses)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
