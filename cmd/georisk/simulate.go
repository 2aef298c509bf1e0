package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

var simulateFlags struct {
	horizon   float64
	step      float64
	threshold float64
	stream    bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the boundary stress accumulation simulation",
	Long: `Accumulates stress on every catalog boundary segment from t=0 to the
horizon in fixed steps, releasing a segment when it crosses the threshold.
Prints a summary report, or one JSON state per line with --stream.`,
	Example: `  georisk simulate --horizon 1000 --step 10
  georisk simulate --horizon 100 --step 1 --stream | jq .time`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Float64Var(&simulateFlags.horizon, "horizon", 1000, "simulation horizon in years")
	f.Float64Var(&simulateFlags.step, "step", 10, "time step in years")
	f.Float64Var(&simulateFlags.threshold, "threshold", 0, "release threshold (default RELEASE_THRESHOLD)")
	f.BoolVar(&simulateFlags.stream, "stream", false, "print every state as a JSON line instead of the summary")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	segments := engine.Catalog().Boundaries

	threshold := cfg.ReleaseThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = simulateFlags.threshold
	}
	opt := domain.WithReleaseThreshold(threshold)

	if simulateFlags.stream {
		seq, err := domain.Simulate(segments, simulateFlags.horizon, simulateFlags.step, opt)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for st := range seq {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := enc.Encode(st); err != nil {
				return err
			}
		}
		return nil
	}

	states, err := domain.SimulateContext(cmd.Context(), segments, simulateFlags.horizon, simulateFlags.step, opt)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), domain.SummarizeSimulation(states, segments, threshold))
}
