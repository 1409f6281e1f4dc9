// Package app wires the marketplace core from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"

	"furamora/internal/booking"
	"furamora/internal/config"
	"furamora/internal/db"
	"furamora/internal/identity"
	"furamora/internal/livelocation"
	"furamora/internal/metrics"
	"furamora/internal/mirror"
	"furamora/internal/reports"
	"furamora/internal/visibility"
	"furamora/models"
	"furamora/repository"
)

// Core holds every service of the marketplace over one record store.
type Core struct {
	Records    *repository.Records
	Metrics    *metrics.Metrics
	Mirror     *mirror.Dispatcher
	Identity   *identity.Service
	Bookings   *booking.Engine
	Reports    *reports.Service
	Live       *livelocation.Service
	Dashboards *visibility.Loader

	db *sql.DB
}

// New builds the services over records. m may be nil to disable metrics.
func New(records *repository.Records, sink mirror.Sink, mirrorTimeout time.Duration, seed models.AdminSeed, m *metrics.Metrics) *Core {
	if m != nil {
		records.OnConflict(m.StoreConflict)
	}
	disp := mirror.NewDispatcher(sink, mirrorTimeout, m)
	c := &Core{
		Records:  records,
		Metrics:  m,
		Mirror:   disp,
		Identity: identity.NewService(records.Users, disp, m, seed),
		Bookings: booking.NewEngine(records.Bookings, m),
		Reports:  reports.NewService(records.Bookings, records.Reports, m),
		Live:     livelocation.NewService(records.LiveLocation),
	}
	c.Dashboards = visibility.NewLoader(c.Identity, records.Bookings, records.Reports, c.Live)
	return c
}

// Open connects the configured store and sink and builds the core.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Core, error) {
	d, err := db.Open(cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	sink, err := OpenSink(ctx, cfg.Mirror)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	records := repository.NewRecords(repository.NewRecordStore(d, cfg.Store.Driver))
	c := New(records, sink, cfg.Mirror.Timeout, cfg.Admin, m)
	c.db = d
	log.WithFields(log.Fields{"driver": cfg.Store.Driver, "sink": sink.Name()}).Info("core ready")
	return c, nil
}

// OpenSink returns the replication sink selected by cfg.
func OpenSink(ctx context.Context, cfg config.MirrorConfig) (mirror.Sink, error) {
	switch cfg.Driver {
	case "", "none":
		return mirror.NopSink{}, nil
	case "s3":
		s, err := mirror.OpenS3Sink(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open s3 sink: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown mirror driver %q", cfg.Driver)
}

// Ping checks the record store.
func (c *Core) Ping(ctx context.Context) error {
	return c.Records.Store.Ping(ctx)
}

// Close waits for pending mirror uploads and closes the store.
func (c *Core) Close() error {
	c.Mirror.Wait()
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
