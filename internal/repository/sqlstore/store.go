// Package sqlstore serves incidents from a database/sql connection.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/repository/query"
)

// seq is the row key; id is the upstream id, NULL when the record has none
const sqliteSchema = `CREATE TABLE IF NOT EXISTS incidents (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT UNIQUE,
	datetime  TEXT,
	complaint TEXT,
	address   TEXT,
	dst_name  TEXT,
	call_type TEXT,
	lon       REAL,
	lat       REAL
)`

const sqliteIndexes = `CREATE INDEX IF NOT EXISTS idx_incidents_filter ON incidents (dst_name, complaint, call_type)`

// Store implements domain.IncidentRepository over database/sql
type Store struct {
	db      *sql.DB
	dialect query.Dialect
}

// New wraps an open connection
func New(db *sql.DB, dialect query.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// OpenPostgres connects through lib/pq
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: failed to ping postgres: %w", err)
	}
	return New(db, query.PostGIS), nil
}

// OpenSQLite opens (and creates if needed) a local incidents database
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	s := New(db, query.SQLite)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the incidents table for the SQLite dialect
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.dialect.Name != query.SQLite.Name {
		return nil
	}
	for _, stmt := range []string{sqliteSchema, sqliteIndexes} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: failed to create schema: %w", err)
		}
	}
	return nil
}

// Insert writes incidents in one transaction and returns the number of rows written.
// A duplicate id fails the whole batch.
func (s *Store) Insert(ctx context.Context, incidents []domain.Incident) (int, error) {
	if s.dialect.Name != query.SQLite.Name {
		return 0, fmt.Errorf("sqlstore: insert is only supported for sqlite, not %s", s.dialect.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO incidents
		(id, datetime, complaint, address, dst_name, call_type, lon, lat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for i, inc := range incidents {
		var id, lon, lat any
		if inc.ID != "" {
			id = inc.ID
		}
		if inc.HasPosition() {
			lon, lat = inc.Position.Lon, inc.Position.Lat
		}
		res, err := stmt.ExecContext(ctx,
			id, inc.Datetime, inc.Complaint, inc.Address, inc.District, inc.CallType, lon, lat,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlstore: failed to insert incident #%d (id %q): %w", i+1, inc.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlstore: failed to count inserted rows: %w", err)
		}
		written += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlstore: failed to commit: %w", err)
	}
	return written, nil
}

// FetchSnapshot retrieves every incident
func (s *Store) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.query(ctx, domain.FilterPredicate{})
	if err != nil {
		return nil, &domain.FetchError{Source: s.dialect.Name, Err: err}
	}
	return incidents, nil
}

// FilterIncidents retrieves the incidents matching p
func (s *Store) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	return s.query(ctx, p)
}

func (s *Store) query(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	q, args := s.dialect.Build(p)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to query incidents: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Incident, 0)
	for rows.Next() {
		inc, err := query.ScanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: failed to scan incident row: %w", err)
		}
		results = append(results, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: failed to read incident rows: %w", err)
	}
	return results, nil
}

// Health checks database connectivity
func (s *Store) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlstore: health check failed: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
