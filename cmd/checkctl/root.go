package main

import (
	"structcheck/internal/check/hint"
	"structcheck/pkg/utils/logger"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	rulesDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "checkctl",
	Short: "Check generic collection implementations against trusted references",
	Long: `checkctl compiles a Go collection implementation, drives it and a trusted
reference through the same operation scripts and prints the verdict.
The shell command talks to a running check-service instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Config{Level: logLevel, Format: "console", OutputPath: "stderr"})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rulesDir, "rules", "", "directory of hint rule files, embedded rules when empty")
}

func loadCatalog() (*hint.Catalog, error) {
	if rulesDir != "" {
		return hint.LoadDir(rulesDir)
	}
	return hint.DefaultCatalog()
}
