package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"calticker/internal/calendar"
	googlecal "calticker/internal/calendar/google"
	icscal "calticker/internal/calendar/ics"
	"calticker/internal/capture"
	"calticker/internal/config"
	appLog "calticker/internal/log"
	"calticker/internal/model"
	"calticker/internal/pubsub"
	"calticker/internal/refresh"
	"calticker/internal/web"
)

type flagConfig struct {
	configPath      string
	listen          string
	credentialsPath string
	tokenPath       string
	cacheDir        string
	previewPath     string
	preview         bool
	debug           bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("calticker starting", "config_path", flags.configPath)

	if err := run(flags); err != nil {
		appLog.Error("startup failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"provider", conf.Provider,
		"timezone", conf.Timezone,
		"refresh_interval", conf.RefreshInterval,
		"hours_ahead", conf.Filters.HoursAhead,
		"calendar_count", len(conf.Calendars),
		"ics_count", len(conf.ICS),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Provider init failure (e.g. missing credentials) is the one fatal
	// error; everything after startup recovers by retrying next tick.
	provider, err := newProvider(ctx, conf, flags)
	if err != nil {
		return err
	}
	defer provider.Close()

	cell := refresh.NewCell()
	broker := pubsub.NewBroker[model.Snapshot]()
	defer broker.Shutdown()

	loop := refresh.NewLoop(provider, conf, cell, broker)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	// Scheduled ticks just poke the loop; it owns the actual refresh.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+conf.RefreshEvery().String(), loop.Trigger); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.NewServer(conf, cell, broker, loop.Trigger, flags.previewPath)
	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	httpErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	if flags.preview {
		go runPreview(ctx, conf.Listen, flags.previewPath)
	}

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		cancel()
		<-loopDone
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown failed", err)
	}

	<-loopDone
	appLog.Info("calticker exiting")
	return nil
}

func newProvider(ctx context.Context, conf *config.Config, flags flagConfig) (calendar.Provider, error) {
	switch conf.Provider {
	case config.ProviderICS:
		if len(conf.ICS) == 0 {
			return nil, errors.New("provider is ics but no ics feeds configured")
		}
		return icscal.New(conf.ICS, flags.cacheDir, conf.Location()), nil
	default:
		p, err := googlecal.New(ctx, googlecal.Options{
			CredentialsPath: flags.credentialsPath,
			TokenPath:       flags.tokenPath,
			CalendarIDs:     conf.Calendars,
			Location:        conf.Location(),
		})
		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}
		return p, nil
	}
}

// runPreview waits for the first snapshot to reach the page, then captures
// a screenshot for /preview.png.
func runPreview(ctx context.Context, listen, outputPath string) {
	// Give the first refresh a moment to land.
	select {
	case <-ctx.Done():
		return
	case <-time.After(5 * time.Second):
	}

	err := capture.TickerPNG(ctx, capture.Options{
		URL:        "http://" + listen + "/",
		OutputPath: outputPath,
	})
	if err != nil {
		appLog.Error("preview capture failed", err)
		return
	}
	appLog.Info("preview captured", "path", outputPath)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.credentialsPath, "credentials", "credentials.json", "Google OAuth client secret file")
	flag.StringVar(&cfg.tokenPath, "token", "token.json", "Google OAuth user token file")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "./var/ics-cache", "ICS feed cache directory")
	flag.StringVar(&cfg.previewPath, "preview-path", "./var/preview.png", "Where preview captures are written")
	flag.BoolVar(&cfg.preview, "preview", false, "Capture a ticker screenshot after startup")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
