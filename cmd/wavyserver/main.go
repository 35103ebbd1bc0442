package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wavyserver/internal/metadata"
	"wavyserver/internal/platform/certloader"
	"wavyserver/internal/platform/config"
	"wavyserver/internal/platform/lock"
	"wavyserver/internal/platform/logger"
	"wavyserver/internal/platform/metrics"
	"wavyserver/internal/wavy"
)

func main() {
	_ = config.Load()

	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	log := logger.New(logLevel, logFormat)

	cfg := wavy.LoadConfig()

	instanceLock, err := lock.Acquire(cfg.LockPath)
	if err != nil {
		log.Error("failed to acquire instance lock", "error", err)
		os.Exit(1)
	}

	tlsCfg, err := certloader.Load(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		log.Error("failed to load tls certificate", "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	metadataParser := metadata.NewLineParser()
	router := wavy.NewRouter(cfg, log, met, metadataParser)

	acceptor, err := wavy.NewAcceptor(cfg, tlsCfg, router, log, met)
	if err != nil {
		log.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}

	go serveMetrics(cfg, log, met)

	go func() {
		if err := acceptor.ListenAndServe(); err != nil {
			log.Error("acceptor error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("wavy server starting",
		"port", cfg.Port,
		"metrics_port", cfg.MetricsPort,
		"storage_root", cfg.StorageRoot,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	<-sigCh

	log.Info("shutdown signal received")

	if err := acceptor.Close(); err != nil {
		log.Error("acceptor close error", "error", err)
	}
	if err := instanceLock.Release(); err != nil {
		log.Error("instance lock release error", "error", err)
	}

	log.Info("wavy server stopped")
}

func serveMetrics(cfg *wavy.Config, log *slog.Logger, met *metrics.Metrics) {
	addr := fmt.Sprintf(":%d", cfg.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler(nil))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server error", "error", err)
	}
}
