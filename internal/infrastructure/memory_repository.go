package infrastructure

import (
	"context"
	"sort"
	"sync"

	"adsync/internal/domain"
	"adsync/pkg/logger"
)

// in-memory domain.ConnectionRepository
type MemoryConnectionRepository struct {
	conns  map[string]*domain.Connection
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryConnectionRepository(logger *logger.Logger) *MemoryConnectionRepository {
	return &MemoryConnectionRepository{
		conns:  make(map[string]*domain.Connection),
		logger: logger,
	}
}

func (r *MemoryConnectionRepository) Latest(ctx context.Context, workspaceID, source string) (*domain.Connection, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *domain.Connection
	for _, conn := range r.conns {
		if conn.WorkspaceID != workspaceID || conn.Source != source {
			continue
		}
		if latest == nil || conn.UpdatedAt.After(latest.UpdatedAt) {
			latest = conn
		}
	}
	if latest == nil {
		return nil, &domain.NoConnectionError{WorkspaceID: workspaceID, Source: source}
	}

	copied := *latest
	return &copied, nil
}

func (r *MemoryConnectionRepository) Save(ctx context.Context, conn *domain.Connection) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *conn
	r.conns[conn.ID] = &copied

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"connection_id": conn.ID,
		"status":        conn.Status,
	}).Debug("Saved connection")
	return nil
}

func (r *MemoryConnectionRepository) ListAll(ctx context.Context) ([]*domain.Connection, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	conns := make([]*domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		copied := *conn
		conns = append(conns, &copied)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns, nil
}

// in-memory domain.MetricRepository keyed by the natural key
type MemoryMetricRepository struct {
	rows   map[string]domain.MetricRow
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryMetricRepository(logger *logger.Logger) *MemoryMetricRepository {
	return &MemoryMetricRepository{
		rows:   make(map[string]domain.MetricRow),
		logger: logger,
	}
}

// UpsertBatch replaces any existing row sharing a natural key. The whole
// batch lands under one lock section, so readers never observe a half
// applied sync attempt.
func (r *MemoryMetricRepository) UpsertBatch(ctx context.Context, rows []domain.MetricRow) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, row := range rows {
		r.rows[row.Key()] = row
	}

	r.logger.WithContext(ctx).WithField("count", len(rows)).Info("Upserted metric rows in memory")
	return nil
}

func (r *MemoryMetricRepository) ListRange(ctx context.Context, workspaceID, since, until string) ([]domain.MetricRow, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []domain.MetricRow
	for _, row := range r.rows {
		if row.WorkspaceID != workspaceID {
			continue
		}
		if since != "" && row.Date < since {
			continue
		}
		if until != "" && row.Date > until {
			continue
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}
