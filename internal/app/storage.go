package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bissquit/incident-tracker/internal/config"
	"github.com/bissquit/incident-tracker/internal/incidents"
	incidentspostgres "github.com/bissquit/incident-tracker/internal/incidents/postgres"
	incidentssqlite "github.com/bissquit/incident-tracker/internal/incidents/sqlite"
	"github.com/bissquit/incident-tracker/internal/pkg/metrics"
	"github.com/bissquit/incident-tracker/internal/pkg/postgres"
	"github.com/bissquit/incident-tracker/internal/pkg/sqlite"
	"github.com/bissquit/incident-tracker/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage is an open incident store together with its connection handle.
type Storage struct {
	driver string
	pool   *pgxpool.Pool
	db     *sql.DB

	// Repository is the incidents repository backed by the open connection.
	Repository incidents.Repository
}

// OpenStorage connects to the database selected by cfg.Driver, retrying as
// configured, and applies migrations once the connection is up.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Storage, error) {
	storage, err := connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.Driver, cfg.URL); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", "driver", cfg.Driver)
	}

	return storage, nil
}

func connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnectTimeout:  cfg.ConnectTimeout,
			ConnectAttempts: cfg.ConnectAttempts,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			driver:     cfg.Driver,
			pool:       pool,
			Repository: incidentspostgres.NewRepository(pool),
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{
			Path:            cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			BusyTimeout:     cfg.BusyTimeout,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			driver:     cfg.Driver,
			db:         db,
			Repository: incidentssqlite.NewRepository(db),
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Driver returns the configured driver name.
func (s *Storage) Driver() string {
	return s.driver
}

// Ping checks that the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// RecordMetrics updates the connection pool gauges.
func (s *Storage) RecordMetrics() {
	if s.pool != nil {
		metrics.RecordDBPoolMetrics(s.pool)
		return
	}
	metrics.RecordSQLDBMetrics(s.driver, s.db)
}

// Close releases the connection.
func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
		return nil
	}
	return s.db.Close()
}
