package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"structcheck/internal/check/hint"
	"structcheck/internal/check/kind"
	"structcheck/internal/check/loader"
	"structcheck/internal/check/oracle"
	"structcheck/internal/check/service"
	"structcheck/internal/check/verdict"
	"structcheck/pkg/utils/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type checkArgs struct {
	Kind      string
	File      string
	Timeout   time.Duration
	BenchSize int
	Verbose   bool
}

var checkFlags checkArgs

// checkCmd runs one source file through the full check pipeline in-process.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a source file and print its verdict",
	Example: `  checkctl check --kind Queue --file ./queue.go
  checkctl check --kind SortedList --file ./sorted.go --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := kind.Parse(checkFlags.Kind)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(checkFlags.File)
		if err != nil {
			return fmt.Errorf("read source failed: %w", err)
		}
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		checker, err := service.NewChecker(service.CheckerConfig{
			Loader:    loader.New(loader.Options{}),
			Hints:     hint.NewGenerator(catalog),
			BenchSize: checkFlags.BenchSize,
			Timeout:   checkFlags.Timeout,
		})
		if err != nil {
			return err
		}

		checkID := uuid.NewString()
		ctx := logger.WithCheckID(cmd.Context(), checkID)
		out := checker.Run(ctx, service.Request{CheckID: checkID, Kind: k, Source: string(src)})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Verdict); err != nil {
			return err
		}
		if checkFlags.Verbose && out.Result != nil {
			printChecks(cmd, out.Result)
		}
		if out.Verdict.Status == verdict.StatusCompilationError {
			return fmt.Errorf("check finished with status %s", out.Verdict.Status)
		}
		return nil
	},
}

func printChecks(cmd *cobra.Command, res *oracle.Result) {
	w := cmd.OutOrStdout()
	for _, c := range res.Checks {
		mark := "ok"
		if !c.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %s\n", mark, c.Name)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.Kind, "kind", "", "collection kind, e.g. List or Dictionary")
	checkCmd.Flags().StringVar(&checkFlags.File, "file", "", "path to the Go source to check")
	checkCmd.Flags().DurationVar(&checkFlags.Timeout, "timeout", 10*time.Second, "time limit for the whole check")
	checkCmd.Flags().IntVar(&checkFlags.BenchSize, "bench-size", oracle.DefaultBenchSize, "number of inputs per timing phase")
	checkCmd.Flags().BoolVar(&checkFlags.Verbose, "verbose", false, "print every oracle check")
	_ = checkCmd.MarkFlagRequired("kind")
	_ = checkCmd.MarkFlagRequired("file")
}
