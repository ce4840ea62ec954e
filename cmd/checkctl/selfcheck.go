package main

import (
	"fmt"
	"text/tabwriter"

	"structcheck/internal/check/candidate"
	"structcheck/internal/check/kind"
	"structcheck/internal/check/oracle"
	"structcheck/internal/check/reference"

	"github.com/spf13/cobra"
)

var (
	selfcheckKinds []string
	selfcheckBench int
)

// selfcheckCmd drives the trusted references through their own scripts.
var selfcheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Run the reference implementations through the equivalence scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := kind.All()
		if len(selfcheckKinds) > 0 {
			kinds = kinds[:0]
			for _, name := range selfcheckKinds {
				k, err := kind.Parse(name)
				if err != nil {
					return err
				}
				kinds = append(kinds, k)
			}
		}

		ctx := cmd.Context()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tCHECKS\tRESULT\tADD\tFIND\tDELETE")
		failed := 0
		for _, k := range kinds {
			o, err := oracle.New(k, oracle.Literals{})
			if err != nil {
				return err
			}
			impl, _ := reference.For(k)
			res, err := o.Run(ctx, candidate.NewNative(impl))
			result := "ok"
			if err != nil || !res.Passed {
				failed++
				result = "FAIL " + res.FailedCheck
			}
			var timing oracle.Timing
			if selfcheckBench > 0 && k.Timed() {
				impl, _ = reference.For(k)
				if timing, err = oracle.Measure(ctx, k, candidate.NewNative(impl), selfcheckBench); err != nil {
					return fmt.Errorf("measure %s: %w", k, err)
				}
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", k, len(res.Checks), result, timing.Add, timing.Find, timing.Delete)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d reference(s) failed their scripts", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selfcheckCmd)

	selfcheckCmd.Flags().StringSliceVar(&selfcheckKinds, "kind", nil, "kinds to run, all when empty")
	selfcheckCmd.Flags().IntVar(&selfcheckBench, "bench", 0, "also time the reference with this many inputs")
}
