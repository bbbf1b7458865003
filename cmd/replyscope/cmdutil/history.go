package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/replyscope/replyscope/cmd/replyscope/sqlitepath"
	"github.com/replyscope/replyscope/pkg/config"
	"github.com/replyscope/replyscope/pkg/dotdir"
	"github.com/replyscope/replyscope/pkg/eventstream"
	"github.com/replyscope/replyscope/pkg/eventstream/kafka"
	"github.com/replyscope/replyscope/pkg/eventstream/nop"
	"github.com/replyscope/replyscope/pkg/recorder"
	"github.com/replyscope/replyscope/pkg/storage"
	"github.com/replyscope/replyscope/pkg/storage/inmemory"
	"github.com/replyscope/replyscope/pkg/storage/postgres"
	"github.com/replyscope/replyscope/pkg/storage/sqlite"
)

// NewStorageDriver opens the history backend named by cfg.Storage.Provider.
func NewStorageDriver(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case "memory":
		log.Debug("using in-memory storage")
		return inmemory.NewDriver(), nil

	case "", "sqlite":
		dotDir, err := dotdir.NewManager().Target(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving config dir: %w", err)
		}

		path, err := sqlitepath.ResolveSQLitePath(cfg.Storage.SQLitePath, dotDir)
		if err != nil {
			return nil, err
		}

		driver, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		log.Debug("using SQLite storage", "path", path)
		return driver, nil

	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.provider is postgres but storage.postgres_dsn is empty")
		}

		driver, err := postgres.NewDriver(ctx, postgres.Config{DSN: cfg.Storage.PostgresDSN})
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		log.Debug("using PostgreSQL storage")
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage provider: %q (available: memory, sqlite, postgres)", cfg.Storage.Provider)
	}
}

// NewPublisher returns the event publisher named by cfg.Events.Provider.
func NewPublisher(cfg *config.Config, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", "none":
		return nop.NewPublisher(), nil

	case "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.BrokerList(),
			Topic:   cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		log.Debug("publishing events to kafka",
			"brokers", cfg.Events.Brokers,
			"topic", cfg.Events.Topic,
		)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown events provider: %q (available: none, kafka)", cfg.Events.Provider)
	}
}

// History bundles the storage driver, publisher and recorder pool of one
// command run.
type History struct {
	Driver    storage.Driver
	Publisher eventstream.Publisher
	Recorder  *recorder.Pool
}

// OpenHistory wires storage, events and the recorder pool from cfg.
func OpenHistory(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*History, error) {
	driver, err := NewStorageDriver(ctx, cfg, configDir, log)
	if err != nil {
		return nil, err
	}

	pub, err := NewPublisher(cfg, log)
	if err != nil {
		driver.Close()
		return nil, err
	}

	host, _ := os.Hostname()
	pool, err := recorder.NewPool(&recorder.Config{
		Driver:    driver,
		Publisher: pub,
		Source:    eventstream.EventSource{Host: host, Target: cfg.Server.Target},
		Logger:    log,
	})
	if err != nil {
		pub.Close()
		driver.Close()
		return nil, fmt.Errorf("creating recorder: %w", err)
	}

	return &History{Driver: driver, Publisher: pub, Recorder: pool}, nil
}

// Close drains the recorder, then closes the publisher and driver.
func (h *History) Close() error {
	h.Recorder.Close()
	return errors.Join(h.Publisher.Close(), h.Driver.Close())
}
