package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_SQLite(t *testing.T) {
	db, err := NewDB(Config{Driver: DriverSQLite})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.Migrate(ctx))
	// Running twice must not fail.
	require.NoError(t, db.Migrate(ctx))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestNewDB_UnknownDriver(t *testing.T) {
	_, err := NewDB(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: DriverSQLite}
	pg := &DB{driver: DriverPGX}

	q := "SELECT * FROM comments WHERE article_id = ? AND parent_id = ?"
	assert.Equal(t, q, sqlite.Rebind(q))
	assert.Equal(t, "SELECT * FROM comments WHERE article_id = $1 AND parent_id = $2", pg.Rebind(q))
}

func TestNewDB_Postgres(t *testing.T) {
	// This test requires a running PostgreSQL instance
	dsn := os.Getenv("THREADHUB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping test: THREADHUB_TEST_POSTGRES_DSN not set")
	}

	for _, driver := range []string{DriverPostgres, DriverPGX} {
		t.Run(driver, func(t *testing.T) {
			db, err := NewDB(Config{Driver: driver, DSN: dsn, MaxOpenConns: 5, Timeout: 10 * time.Second})
			if err != nil {
				t.Skipf("Skipping test: PostgreSQL not available: %v", err)
				return
			}
			defer db.Close()

			require.NoError(t, db.HealthCheck(context.Background()))
			require.NoError(t, db.Migrate(context.Background()))
		})
	}
}
