package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

var platesFlags struct {
	years      float64
	resolution float64
	threshold  float64
	limit      int
}

var platesCmd = &cobra.Command{
	Use:   "plates",
	Short: "Project plate motion and locate stress hotspots",
	Example: `  georisk plates --years 1000
  georisk plates --years 100 --resolution 5 --limit 10`,
	RunE: runPlates,
}

func init() {
	f := platesCmd.Flags()
	f.Float64Var(&platesFlags.years, "years", 1000, "projection horizon in years")
	f.Float64Var(&platesFlags.resolution, "resolution", 10, "hotspot grid resolution in degrees (at least 1)")
	f.Float64Var(&platesFlags.threshold, "threshold", 0, "minimum loading for a hotspot")
	f.IntVar(&platesFlags.limit, "limit", 20, "maximum number of hotspots to print (0 for all)")
}

func runPlates(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	movements, err := domain.ProjectPlates(engine.Catalog().Plates, platesFlags.years)
	if err != nil {
		return err
	}
	hotspots, err := domain.Hotspots(cmd.Context(), movements,
		platesFlags.resolution, platesFlags.threshold, platesFlags.limit)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), struct {
		Years      float64                `json:"years"`
		Movements  []domain.PlateMovement `json:"movements"`
		Converging []domain.Convergence   `json:"converging"`
		Hotspots   []domain.Hotspot       `json:"hotspots"`
	}{
		Years:      platesFlags.years,
		Movements:  movements,
		Converging: domain.ConvergingPairs(movements),
		Hotspots:   hotspots,
	})
}
