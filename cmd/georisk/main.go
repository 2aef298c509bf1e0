// Command georisk scores earthquake risk against the embedded tectonic and
// volcanic catalogs. "georisk serve" runs the Kafka pipeline and HTTP API;
// the other subcommands run one-shot assessments, simulations and checks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/seismic-risk-service/internal/catalog"
	"github.com/couchcryptid/seismic-risk-service/internal/config"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "georisk",
		Short:         "Geological risk assessment engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			c, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
			logger = observability.NewLogger(cfg)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, assessCmd, simulateCmd, platesCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newEngine loads the catalogs from CATALOG_DIR (or the embedded defaults)
// and builds the scoring engine.
func newEngine() (*domain.Engine, error) {
	c, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return domain.NewEngine(c,
		domain.WithVolcanoRadius(cfg.VolcanoRadiusKm),
		domain.WithParameterEstimation(cfg.EstimateParameters),
	)
}
