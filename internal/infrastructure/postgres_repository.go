package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adsync/internal/domain"
)

// PostgresConnectionRepository implements domain.ConnectionRepository on PostgreSQL.
type PostgresConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresConnectionRepository(pool *pgxpool.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

func (r *PostgresConnectionRepository) Latest(ctx context.Context, workspaceID, source string) (*domain.Connection, error) {
	var c domain.Connection
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, source, status, api_key, api_secret, customer_id,
		       COALESCE(last_sync_since, ''), COALESCE(last_sync_until, ''),
		       COALESCE(last_error, ''), updated_at
		FROM connections
		WHERE workspace_id = $1 AND source = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`, workspaceID, source).Scan(
		&c.ID, &c.WorkspaceID, &c.Source, &c.Status, &c.APIKey, &c.APISecret, &c.CustomerID,
		&c.LastSyncSince, &c.LastSyncUntil, &c.LastError, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NoConnectionError{WorkspaceID: workspaceID, Source: source}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &c, nil
}

func (r *PostgresConnectionRepository) Save(ctx context.Context, conn *domain.Connection) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO connections (id, workspace_id, source, status, api_key, api_secret, customer_id,
		                         last_sync_since, last_sync_until, last_error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			api_key = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			customer_id = EXCLUDED.customer_id,
			last_sync_since = EXCLUDED.last_sync_since,
			last_sync_until = EXCLUDED.last_sync_until,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
	`, conn.ID, conn.WorkspaceID, conn.Source, conn.Status, conn.APIKey, conn.APISecret, conn.CustomerID,
		conn.LastSyncSince, conn.LastSyncUntil, conn.LastError, conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}
	return nil
}

func (r *PostgresConnectionRepository) ListAll(ctx context.Context) ([]*domain.Connection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, source, status, api_key, api_secret, customer_id,
		       COALESCE(last_sync_since, ''), COALESCE(last_sync_until, ''),
		       COALESCE(last_error, ''), updated_at
		FROM connections ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(
			&c.ID, &c.WorkspaceID, &c.Source, &c.Status, &c.APIKey, &c.APISecret, &c.CustomerID,
			&c.LastSyncSince, &c.LastSyncUntil, &c.LastError, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conns = append(conns, &c)
	}
	return conns, rows.Err()
}

// PostgresMetricRepository implements domain.MetricRepository on PostgreSQL.
type PostgresMetricRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMetricRepository(pool *pgxpool.Pool) *PostgresMetricRepository {
	return &PostgresMetricRepository{pool: pool}
}

// UpsertBatch writes the batch inside one transaction so a failed sync
// attempt never leaves a partial day range behind.
func (r *PostgresMetricRepository) UpsertBatch(ctx context.Context, rows []domain.MetricRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO metric_rows (workspace_id, source, date, entity_type, entity_id,
			                         impressions, clicks, cost, conversions, revenue)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (workspace_id, source, date, entity_type, entity_id) DO UPDATE SET
				impressions = EXCLUDED.impressions,
				clicks = EXCLUDED.clicks,
				cost = EXCLUDED.cost,
				conversions = EXCLUDED.conversions,
				revenue = EXCLUDED.revenue
		`, row.WorkspaceID, row.Source, row.Date, row.EntityType, row.EntityID,
			row.Impressions, row.Clicks, row.Cost, row.Conversions, row.Revenue)
		if err != nil {
			return &domain.PersistenceError{Op: "upsert", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func (r *PostgresMetricRepository) ListRange(ctx context.Context, workspaceID, since, until string) ([]domain.MetricRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT workspace_id, source, date, entity_type, entity_id,
		       impressions, clicks, cost, conversions, revenue
		FROM metric_rows
		WHERE workspace_id = $1
		  AND ($2 = '' OR date >= $2)
		  AND ($3 = '' OR date <= $3)
		ORDER BY date
	`, workspaceID, since, until)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []domain.MetricRow
	for rows.Next() {
		var m domain.MetricRow
		if err := rows.Scan(
			&m.WorkspaceID, &m.Source, &m.Date, &m.EntityType, &m.EntityID,
			&m.Impressions, &m.Clicks, &m.Cost, &m.Conversions, &m.Revenue,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
