package domain

import "strings"

const EntityTypeAccount = "account"

// MetricRow is one persisted (workspace, source, date, entity) tuple.
// The natural key is (WorkspaceID, Source, Date, EntityType, EntityID);
// re-syncing a day replaces that day's row, never duplicates it.
type MetricRow struct {
	WorkspaceID string  `json:"workspace_id"`
	Source      string  `json:"source"`
	Date        string  `json:"date"`
	EntityType  string  `json:"entity_type"`
	EntityID    string  `json:"entity_id"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Key returns the natural key as a single string, usable as a map key.
func (m MetricRow) Key() string {
	return strings.Join([]string{m.WorkspaceID, m.Source, m.Date, m.EntityType, m.EntityID}, "|")
}

// Row is a denormalized record used purely for in-memory aggregation.
// Dimension fields are optional; numeric fields default to zero when the
// upstream data is missing or non-numeric.
type Row struct {
	Date        string  `json:"date"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`

	Device   string  `json:"device,omitempty"`
	Channel  string  `json:"channel,omitempty"`
	Source   string  `json:"source,omitempty"`
	Campaign string  `json:"campaign,omitempty"`
	AdGroup  string  `json:"ad_group,omitempty"`
	Keyword  string  `json:"keyword,omitempty"`
	Creative string  `json:"creative,omitempty"`
	AvgRank  float64 `json:"avg_rank,omitempty"`
}

// AggregationRow converts a persisted metric row into an aggregation input.
func (m MetricRow) AggregationRow() Row {
	return Row{
		Date:        m.Date,
		Impressions: m.Impressions,
		Clicks:      m.Clicks,
		Cost:        m.Cost,
		Conversions: m.Conversions,
		Revenue:     m.Revenue,
		Source:      m.Source,
	}
}

// GoalState is a user-entered monthly target consumed, never mutated, by
// the aggregation engine.
type GoalState struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}
