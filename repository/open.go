package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/neonet-app/go-auth"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Supported persistence drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the user store
type Config struct {
	Driver       string `mapstructure:"driver" json:"driver" yaml:"driver"`
	DSN          string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" json:"max_open_conns" yaml:"max_open_conns"`
}

// Open returns a bun database for the sql drivers
func Open(cfg Config) (*bun.DB, error) {
	var db *bun.DB

	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}
		if strings.Contains(dsn, ":memory:") {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres dsn is required", errors.CategoryValidation)
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, errors.New(fmt.Sprintf("unsupported sql driver %q", cfg.Driver), errors.CategoryValidation)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// Store owns the user repository and its connection
type Store struct {
	users auth.UserRepository
	db    *bun.DB
}

// NewUserStore opens the configured backend and initializes its schema
func NewUserStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Driver == "" || strings.EqualFold(cfg.Driver, DriverMemory) {
		users := NewMemoryUsers()
		if err := users.Init(ctx); err != nil {
			return nil, err
		}
		return &Store{users: users}, nil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to reach database")
	}

	manager := auth.NewRepositoryManager(db)
	if err := manager.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{users: manager.Users(), db: db}, nil
}

// Users returns the user repository
func (s *Store) Users() auth.UserRepository {
	return s.users
}

// DB returns the sql database, nil for the memory driver
func (s *Store) DB() *bun.DB {
	return s.db
}

// Close releases the connection pool
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
