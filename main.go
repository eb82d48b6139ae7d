package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"f1racetelemetry/pkg/config"
	"f1racetelemetry/pkg/ingest"
	"f1racetelemetry/pkg/logger"
	"f1racetelemetry/pkg/racestate"
	"f1racetelemetry/pkg/settings"
	"f1racetelemetry/pkg/webserver"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("loading configuration: %s", err)
	}

	logg, logFile, err := logger.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatalf("creating logger: %s", err)
	}
	defer logFile.Close()
	slog.SetDefault(logg)

	if err := run(cfg, logg); err != nil {
		logg.Error("telemetry server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsMgr, err := settings.NewManager(cfg.SettingsDB, cfg.NumAdjacentCars, logg.With("component", "settings"))
	if err != nil {
		return err
	}
	defer settingsMgr.Close()

	state := racestate.New()
	handler := ingest.NewHandler(state, logg.With("component", "ingest"))
	client := ingest.NewClient(cfg.TelemetryURL, cfg.ReconnectDelay, handler, logg.With("component", "ingest"))
	webMgr := webserver.NewManager(webserver.Options{
		Address:           cfg.WebserverAddress,
		RefreshInterval:   cfg.RefreshInterval,
		MaxWeatherSamples: cfg.MaxWeatherSamples,
	}, state, handler, settingsMgr, logg.With("component", "webserver"))
	webMgr.Debug()

	logg.Info("starting telemetry server",
		"telemetryURL", cfg.TelemetryURL,
		"address", cfg.WebserverAddress,
		"refreshInterval", cfg.RefreshInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(ctx)
	})
	g.Go(func() error {
		return webMgr.Serve(ctx)
	})
	return g.Wait()
}
