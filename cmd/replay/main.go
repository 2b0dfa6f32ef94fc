package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/replay"
)

// #region main

func main() {
	var (
		dir      string
		verbose  bool
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "replay [fixture.json ...]",
		Short: "Replay scripted conversations against the sample dataset",
		Long: `Run each fixture through a fresh dialog session and compare every
turn with its expectations. Exits 1 when any turn mismatches.

Example:
  replay internal/replay/testdata/fast_path.json
  replay --dir internal/replay/testdata -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if dir != "" {
				matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
				if err != nil {
					return err
				}
				paths = append(paths, matches...)
			}
			if len(paths) == 0 {
				return fmt.Errorf("no fixtures given; pass paths or --dir")
			}

			logger := zap.NewNop()
			if logLevel != "" {
				l, err := logging.NewLogger(logLevel)
				if err != nil {
					return err
				}
				defer l.Sync()
				logger = l
			}

			failed := 0
			for _, p := range paths {
				ok, err := runFixture(cmd, p, verbose, logger)
				if err != nil {
					return err
				}
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fixtures failed", failed, len(paths))
			}
			return nil
		},
	}
	rootCmd.Flags().StringVar(&dir, "dir", "", "replay every *.json fixture in this directory")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the reply of every turn")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "emit controller logs to stderr at this level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region fixture

func runFixture(cmd *cobra.Command, path string, verbose bool, logger *zap.Logger) (bool, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return false, err
	}
	results, err := replay.Replay(cmd.Context(), f, logger)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("== %s", filepath.Base(path))
	if f.Description != "" {
		fmt.Printf(": %s", f.Description)
	}
	fmt.Println()

	fmt.Printf("%-8s  %-22s  %-10s  %s\n", "Turn", "State", "Outcome", "Result")
	fmt.Printf("%-8s+-%-22s+-%-10s+-%s\n", "--------", "----------------------", "----------", "------")
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		outcome := r.Outcome
		if outcome == "" {
			outcome = "-"
		}
		fmt.Printf("%-8s  %-22s  %-10s  %s\n", r.TurnID, r.State, outcome, status)
		for _, m := range r.Mismatches {
			fmt.Printf("          %s\n", m)
		}
		if verbose {
			fmt.Printf("          reply: %q\n", r.Reply)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\n%d turns, %d passed, %d failed, %d queries\n\n", s.TotalTurns, s.Passed, s.Failed, s.Queries)
	return s.Failed == 0, nil
}

// #endregion fixture
