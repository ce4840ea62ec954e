package main

import (
	"fmt"

	"structcheck/internal/check/kind"

	"github.com/spf13/cobra"
)

var rulesKind string

// rulesCmd prints the loaded hint catalog.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the hint rules per kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		kinds := catalog.Kinds()
		if rulesKind != "" {
			k, err := kind.Parse(rulesKind)
			if err != nil {
				return err
			}
			kinds = []kind.Kind{k}
		}
		w := cmd.OutOrStdout()
		for _, k := range kinds {
			rs := catalog.Rules(k)
			if rs == nil {
				fmt.Fprintf(w, "%s: no rules\n", k)
				continue
			}
			fmt.Fprintf(w, "%s:\n", k)
			for _, m := range rs.Methods {
				fmt.Fprintf(w, "  %-16s locals=%d source=%d\n", m.Method, len(m.Locals), len(m.Source))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVar(&rulesKind, "kind", "", "only list rules of this kind")
}
