package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"threadhub/pkg/models"
)

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// mapDBError maps database errors to application errors
func mapDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapSQLState(string(pgErr.Code), operation, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return mapSQLState(string(pqErr.Code), operation, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w: %v", operation, ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: invalid reference: %w", operation, err)
	}

	return fmt.Errorf("database error during %s: %w", operation, err)
}

func mapSQLState(code, operation string, err error) error {
	switch code {
	case "23505": // unique_violation
		return fmt.Errorf("%s: %w: %v", operation, ErrDuplicate, err)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%s: invalid reference: %w", operation, err)
	case "22001": // string_data_right_truncation
		return fmt.Errorf("%s: %w", operation, models.ErrContentTooLong)
	}
	return fmt.Errorf("database error during %s: %w", operation, err)
}

// dbTime scans timestamps from drivers that return them as text
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// Value stores timestamps in UTC
func (t dbTime) Value() (driver.Value, error) {
	return t.Time.UTC(), nil
}

// nullInt64 converts an optional id to a driver value
func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
