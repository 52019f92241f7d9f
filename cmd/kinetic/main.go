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

	"kinetic/internal/bootstrap"
	"kinetic/internal/config"
	"kinetic/internal/logging"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "kinetic: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, logging.ParseLevel(cfg.Logging.Level))

	services, err := bootstrap.Build(cfg, log, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn("shutdown cleanup failed", logging.F("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := services.Device.Connect(ctx); err != nil {
		// sessions cannot start until the sensor comes up, but the API,
		// forwarder, and recommendation loop still run
		log.Warn("sensor bridge unavailable", logging.F("error", err))
	}

	go func() {
		for reading := range services.Device.Readings() {
			services.Hub.Reading(reading)
		}
	}()

	go func() {
		if err := services.Reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reconciliation watcher stopped", logging.F("error", err))
		}
	}()

	go services.Recommender.Run(ctx)

	mux := http.NewServeMux()
	services.API.RegisterRoutes(mux)
	server := &http.Server{Addr: cfg.Daemon.Address, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("daemon listening", logging.F("addr", cfg.Daemon.Address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", logging.F("error", err))
		}
	}
	return nil
}
