// Package database opens the development backend's SQL store. SQLite is the
// default; PostgreSQL is reachable through lib/pq or pgx.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

// DB wraps the sql.DB connection together with its dialect
type DB struct {
	*sql.DB
	driver string
}

// Config holds database configuration
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// NewDB opens and pings a database with proper pooling
func NewDB(config Config) (*DB, error) {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	if config.DSN == "" && config.Driver == DriverSQLite {
		config.DSN = ":memory:"
	}

	switch config.Driver {
	case DriverSQLite, DriverPostgres, DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	sqlDB, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.Driver == DriverSQLite {
		// An in-memory database exists per connection.
		sqlDB.SetMaxOpenConns(1)
	} else if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: config.Driver}
	if config.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// Driver returns the driver name the DB was opened with
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders to $n for PostgreSQL drivers
func (db *DB) Rebind(query string) string {
	if db.driver == DriverSQLite {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection gracefully
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck performs a database health check with timeout
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("health check returned unexpected value: %d", result)
	}

	return nil
}

// WithTransaction executes fn within a transaction
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
