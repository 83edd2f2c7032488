// Command forecast downloads the BoM forecast bulletin, extracts the excerpt
// named by PROFILE and writes it to OUTPUT_PATH.
//
// With RUN_INTERVAL unset it performs a single pass and exits non-zero when
// the pass fails. With RUN_INTERVAL set it repeats the pass on that interval
// and serves /healthz, /readyz, /metrics, /forecast and /status on HTTP_ADDR.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/file"
	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/ftp"
	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/bom-forecast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/bom-forecast-etl/internal/config"
	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
	"github.com/couchcryptid/bom-forecast-etl/internal/observability"
	"github.com/couchcryptid/bom-forecast-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logFile, err := observability.OpenRotatingFile(cfg.LogPath, cfg.LogMaxBytes)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.LogPath, "error", err)
		return 1
	}
	defer logFile.Close()

	logger := observability.NewLogger(cfg, io.MultiWriter(os.Stderr, logFile))
	metrics := observability.NewMetrics()

	logger.Info("forecast collector starting",
		"profile", cfg.Profile.Name, "area", cfg.Profile.Area, "source", cfg.FTPAddr()+cfg.FTPDir+cfg.FTPFilename)

	fetcher := ftp.NewFetcher(cfg, logger, metrics)
	extractor := domain.NewExtractor(cfg.Profile, logger)
	writer := file.NewWriter(cfg.OutputPath, cfg.OutputClearStale, logger)

	var opts []pipeline.Option
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublishers(publisher))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(fetcher, extractor, writer, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval == 0 {
		return runOnce(ctx, cfg, p, logger)
	}
	return schedule(ctx, cfg, p, logger)
}

func runOnce(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	res := p.RunOnce(ctx)

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if res.Failed() {
		return 1
	}
	return 0
}

func schedule(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	code := 0
	if err := p.Run(ctx, cfg.RunInterval); err != nil {
		logger.Error("pipeline error", "error", err)
		code = 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return code
}
