package main

import (
	"structcheck/internal/cli/command"
	"structcheck/internal/cli/config"
	httpclient "structcheck/internal/cli/http"
	"structcheck/internal/cli/repl"
	"structcheck/internal/cli/state"

	"github.com/spf13/cobra"
)

type shellArgs struct {
	ConfigPath string
	BaseURL    string
	StatePath  string
	Pretty     bool
}

var shellFlags shellArgs

// shellCmd opens an interactive session against a running check-service.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive client for the check-service API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(shellFlags.ConfigPath)
		if err != nil {
			return err
		}
		if shellFlags.BaseURL != "" {
			cfg.BaseURL = shellFlags.BaseURL
		}
		if shellFlags.StatePath != "" {
			cfg.StatePath = shellFlags.StatePath
		}
		if cmd.Flags().Changed("pretty") {
			cfg.PrettyJSON = &shellFlags.Pretty
		}

		session, err := state.Load(cfg.StatePath)
		if err != nil {
			return err
		}
		client := httpclient.New(cfg.BaseURL, cfg.Timeout)
		s := repl.New(client, command.Registry(), &session, cfg.StatePath, *cfg.PrettyJSON, cmd.OutOrStdout())
		return s.Run(cmd.Context(), cfg.HistoryFile)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().StringVar(&shellFlags.ConfigPath, "config", "configs/cli.yaml", "path to shell config")
	shellCmd.Flags().StringVar(&shellFlags.BaseURL, "base", "", "override check-service base URL")
	shellCmd.Flags().StringVar(&shellFlags.StatePath, "state", "", "override session state path")
	shellCmd.Flags().BoolVar(&shellFlags.Pretty, "pretty", true, "pretty print JSON responses")
}
