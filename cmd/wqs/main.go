// Command wqs serves the water quality scoring API and, when STREAM_ENABLED is
// set, scores raw samples from Kafka onto a sink topic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/water-quality-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-quality-service/internal/adapter/kafka"
	"github.com/couchcryptid/water-quality-service/internal/config"
	"github.com/couchcryptid/water-quality-service/internal/observability"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
	"github.com/couchcryptid/water-quality-service/internal/results"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", observability.Err(err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := results.NewStore(cfg.ResultTTL)
	eval := pipeline.NewEvaluator(store, logger, metrics, pipeline.EvaluatorOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Delimiter:      cfg.CSVDelimiter,
	})

	checks := readiness{eval}

	var stream *streamScorer
	if cfg.StreamEnabled {
		stream = newStreamScorer(cfg, logger, metrics)
		checks = append(checks, stream.pipeline)
		logger.Info("stream scoring enabled",
			"brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
		)
	} else {
		logger.Info("stream scoring disabled")
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		EntryURL:       cfg.EntryURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, eval, store, checks, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if stream != nil {
		g.Go(func() error {
			return stream.pipeline.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", observability.Err(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", observability.Err(err))
	}

	if stream != nil {
		stream.close(logger)
	}
	logger.Info("shutdown complete")
}

// streamScorer bundles the Kafka reader and writer with the pipeline that
// moves samples between them.
type streamScorer struct {
	reader   *kafkaadapter.Reader
	writer   *kafkaadapter.Writer
	pipeline *pipeline.Pipeline
}

func newStreamScorer(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *streamScorer {
	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(logger, metrics)

	return &streamScorer{
		reader:   reader,
		writer:   writer,
		pipeline: pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize),
	}
}

func (s *streamScorer) close(logger *slog.Logger) {
	if err := s.reader.Close(); err != nil {
		logger.Error("kafka reader close error", observability.Err(err))
	}
	if err := s.writer.Close(); err != nil {
		logger.Error("kafka writer close error", observability.Err(err))
	}
}

// readiness reports ready only when every component is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
