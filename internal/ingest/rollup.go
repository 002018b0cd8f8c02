package ingest

import (
	"sort"

	"adsync/internal/domain"
)

// Rollup groups normalized rows by calendar day and sums the five metric
// fields, producing one MetricRow per distinct date for the fixed
// (workspace, source, entity) of this sync run. Output is sorted by date
// so upsert batches are deterministic.
func Rollup(rows []domain.Row, workspaceID, source, entityType, entityID string) []domain.MetricRow {
	byDate := make(map[string]*domain.MetricRow)
	for _, row := range rows {
		m, ok := byDate[row.Date]
		if !ok {
			m = &domain.MetricRow{
				WorkspaceID: workspaceID,
				Source:      source,
				Date:        row.Date,
				EntityType:  entityType,
				EntityID:    entityID,
			}
			byDate[row.Date] = m
		}
		m.Impressions += row.Impressions
		m.Clicks += row.Clicks
		m.Cost += row.Cost
		m.Conversions += row.Conversions
		m.Revenue += row.Revenue
	}

	out := make([]domain.MetricRow, 0, len(byDate))
	for _, m := range byDate {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
