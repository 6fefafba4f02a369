package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/postmetrics/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "postmetrics",
	Short: "Derive dashboard metrics from social-media post exports",
	Long:  "Reads a CSV or XLSX export of social-media posts, infers its columns and derives headline stats, a daily series, an account leaderboard and a filterable post table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "CSV/XLSX path or http(s)/ftp URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&delimiterFlag, "delimiter", "", "CSV delimiter (default: detect)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
