package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"furamora/internal/app"
	"furamora/internal/config"
	grpcserver "furamora/internal/grpc"
	"furamora/internal/logging"
	"furamora/internal/metrics"
	"furamora/internal/ops"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		log.WithError(err).Fatal("setup logging")
	}
	log.Infof("Configuration loaded: %v", cfg)

	m := metrics.New()
	core, err := app.Open(context.Background(), cfg, m)
	if err != nil {
		log.WithError(err).Fatal("open core")
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.WithError(err).Error("close core")
		}
	}()

	// Seed the admin account up front so the first dashboard read does not race it.
	if _, err := core.Identity.EnsureAdminSeed(context.Background()); err != nil {
		log.WithError(err).Fatal("seed admin")
	}

	// Start gRPC
	shutdown, err := grpcserver.StartGRPC(cfg, &grpcserver.Server{
		Identity:   core.Identity,
		Bookings:   core.Bookings,
		Reports:    core.Reports,
		Live:       core.Live,
		Dashboards: core.Dashboards,
	})
	if err != nil {
		log.WithError(err).Fatal("start grpc")
	}
	log.WithField("address", cfg.GRPC.Address).Info("gRPC server listening")

	stopOps := ops.Start(cfg.HTTP.Address, ops.NewRouter(core, m.Handler()))
	log.WithField("address", cfg.HTTP.Address).Info("ops http listening")

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.WithError(err).Error("grpc shutdown")
	}
	if err := stopOps(ctx); err != nil {
		log.WithError(err).Error("ops shutdown")
	}
}
