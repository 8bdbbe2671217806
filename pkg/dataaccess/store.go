package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const storeName = "tenant_store"

// Store is the tenant store. It owns the database handle; all reads and
// mutations go through a Session.
type Store struct {
	// l is the logger.
	l *slog.Logger

	// db is the database handle. This is a connection pool.
	db *gorm.DB
}

// Connect opens the sqlite database at path and migrates the schema.
func Connect(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening store: %w", err)
	}

	if err := db.AutoMigrate(
		&entities.Guild{},
		&entities.TicketCreator{},
		&entities.Ticket{},
		&entities.StaffRole{},
		&entities.ObserverRole{},
		&entities.CommunityRole{},
		&entities.CommunityPingRole{},
		&entities.Member{},
		&entities.TicketType{},
		&entities.Tag{},
	); err != nil {
		return nil, fmt.Errorf("error migrating store: %w", err)
	}

	return NewStore(db), nil
}

// NewStore creates a store around an already-open database handle.
func NewStore(db *gorm.DB) *Store {
	l := slog.Default().With(slog.String(logging.KeyDal, storeName))

	if db == nil {
		l.Warn("Database handle is nil, this can cause a panic. Proceeding...")
	}

	return &Store{
		l:  l,
		db: db,
	}
}

// Ping checks the underlying database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("error getting database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging store: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool. In-flight sessions should be
// allowed to commit before this is called.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("error getting database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}
	return nil
}

// Session begins one unit of work. The caller must guarantee Close on every
// exit path; mutations are discarded unless Commit is called first.
func (s *Store) Session() (*Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("error beginning session: %w", tx.Error)
	}
	return &Session{
		l:  s.l,
		tx: tx,
	}, nil
}

// observe starts the prometheus metrics for one store operation and returns
// the function that records its duration.
func observe(op, entity string) func() {
	monitoring.StoreTotalRequests.WithLabelValues(op, entity).Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(op, entity))
	return func() { t.ObserveDuration() }
}
