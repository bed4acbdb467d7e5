package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/repository/query"
)

// PostgresRepository implements domain.IncidentRepository on a PostGIS incidents table
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FetchSnapshot retrieves every incident
func (r *PostgresRepository) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := r.query(ctx, domain.FilterPredicate{})
	if err != nil {
		return nil, &domain.FetchError{Source: "postgres", Err: err}
	}
	return incidents, nil
}

// FilterIncidents retrieves the incidents matching p
func (r *PostgresRepository) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	return r.query(ctx, p)
}

func (r *PostgresRepository) query(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	sql, args := query.PostGIS.Build(p)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query incidents: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Incident, 0)
	for rows.Next() {
		inc, err := query.ScanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan incident row: %w", err)
		}
		results = append(results, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read incident rows: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
