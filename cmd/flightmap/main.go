package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flight-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flight-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/flight-map-service/internal/config"
	"github.com/couchcryptid/flight-map-service/internal/observability"
	"github.com/couchcryptid/flight-map-service/internal/playback"
	"github.com/couchcryptid/flight-map-service/internal/reference"
	"github.com/couchcryptid/flight-map-service/internal/render"
	"github.com/couchcryptid/flight-map-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	airports, err := reference.LoadAirports(cfg.AirportsFile, logger)
	if err != nil {
		logger.Error("failed to load airports", "error", err)
		os.Exit(1)
	}
	replacements, err := reference.LoadReplacements(cfg.ReplacementsFile, logger)
	if err != nil {
		logger.Error("failed to load replacements", "error", err)
		os.Exit(1)
	}

	// Event publishing is feature-flagged via KAFKA_ENABLED.
	var sink session.EventSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sink = publisher
		logger.Info("kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("kafka event publishing disabled")
	}

	renderer := render.NewRenderer(render.Options{
		GeodesicPoints: cfg.GeodesicPoints,
		PathCacheSize:  cfg.GeodesicCacheSize,
		MapWidth:       cfg.MapWidth,
		MapHeight:      cfg.MapHeight,
	})
	player := playback.New(renderer, playback.Options{
		SegmentDelay:      cfg.PlaybackSegmentDelay,
		HighlightDuration: cfg.PlaybackHighlightDuration,
	}, logger)
	svc := session.New(session.Reference{Airports: airports, Replacements: replacements},
		renderer, player, sink, logger, metrics, session.Options{ErrorPreviewLimit: cfg.ErrorPreviewLimit})

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.MaxUploadBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := svc.Close(shutdownCtx); err != nil {
		logger.Error("session close error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
