// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"vidgrab/internal/binaries"
	"vidgrab/internal/config"
	"vidgrab/internal/download"
	"vidgrab/internal/engine"
	httprouter "vidgrab/internal/infrastructure/delivery/http"
	"vidgrab/internal/observability"
	"vidgrab/internal/preview"
	"vidgrab/internal/service"
	"vidgrab/internal/storage"
	"vidgrab/internal/transcoder"
	httpserver "vidgrab/pkg/http/server"
	"vidgrab/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New()

	for _, dir := range []string{cfg.Dir.Downloads, cfg.Dir.Previews} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.ErrorContext(ctx, "create directory", slog.String("dir", dir), slog.Any("error", err))
			stop()
			os.Exit(1)
		}
	}

	log.InfoContext(ctx, "checking if yt-dlp is installed. it may take some time...")

	if err := engine.Install(ctx); err != nil {
		log.ErrorContext(ctx, "yt-dlp install", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	ffmpegPath, err := binaries.New(log, cfg).EnsureFFmpeg(ctx)
	if err != nil {
		// Downloads still work without ffmpeg; trim, audio extraction and
		// previews are reported unavailable per request.
		log.WarnContext(ctx, "ffmpeg not found; trim, mp3 and previews disabled", slog.Any("error", err))
	}

	eng := engine.NewYTdlp(log, cfg, ffmpegPath)
	trc := transcoder.NewFFmpeg(log, ffmpegPath)
	storer := storage.New(ctx, log, cfg, metrics)

	orchestrator := download.New(log, cfg, eng, trc, storer, metrics)
	svc := service.New(log, cfg, orchestrator, storer, metrics)
	previews := preview.New(log, cfg, storer, eng, trc, metrics)

	router := httprouter.New(log, cfg, eng, svc, storer, previews, metrics)

	httpSrv := httpserver.New(router, httpserver.Options{
		Addr:            cfg.HTTP.Port,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	svc.Start(ctx)

	log.InfoContext(ctx, "vidgrab started", slog.String("port", cfg.HTTP.Port))

	select {
	case <-ctx.Done():
	case err := <-httpSrv.Notify():
		log.ErrorContext(ctx, "http server", slog.Any("error", err))
	}

	err = httpSrv.Shutdown()
	if err != nil {
		log.Error(err.Error())
	}

	log.InfoContext(ctx, "vidgrab shut down gracefully")
}
