package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismic-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/seismic-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
	"github.com/couchcryptid/seismic-risk-service/internal/observability"
	"github.com/couchcryptid/seismic-risk-service/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Kafka assessment pipeline and the HTTP API",
	RunE:  runServe,
}

// readinessFunc adapts a function to the readiness checker interface.
type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func runServe(cmd *cobra.Command, _ []string) error {
	metrics := observability.NewMetrics()

	engine, err := newEngine()
	if err != nil {
		return err
	}
	c := engine.Catalog()
	logger.Info("catalog loaded",
		"volcanoes", len(c.Volcanoes),
		"boundaries", len(c.Boundaries),
		"plates", len(c.Plates),
		"sites", len(c.Sites),
	)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()
	logger.Info("assessment history opened", "path", cfg.DBPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	var ready sharedobs.ReadinessChecker = readinessFunc(store.Ping)
	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()

		transformer := pipeline.NewTransformer(engine, geocoder, logger)
		p := pipeline.New(reader, transformer, pipeline.MultiLoader{writer, store}, logger, metrics,
			cfg.BatchSize, pipeline.WithWorkers(cfg.AssessWorkers))
		ready = p

		g.Go(func() error {
			return p.Run(gctx)
		})
	} else {
		logger.Info("kafka pipeline disabled")
	}

	handler := httpadapter.NewHandler(httpadapter.HandlerConfig{
		Engine:           engine,
		Geocoder:         geocoder,
		History:          store,
		Metrics:          metrics,
		Logger:           logger,
		ReleaseThreshold: cfg.ReleaseThreshold,
		Workers:          cfg.AssessWorkers,
	})
	gin.SetMode(gin.ReleaseMode)
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.NewRouter(handler, ready, cfg.APIRateLimit), logger)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
