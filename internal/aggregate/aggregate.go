// Package aggregate computes dashboard views from flat row sets. Every
// function is pure and reentrant; inputs are never mutated, so the
// package is safe to call concurrently from request handlers.
package aggregate

import (
	"sort"
	"strings"

	"adsync/internal/domain"
)

// Totals holds summed metrics plus the derived ratios.
type Totals struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`

	CTR  float64 `json:"ctr"`
	CPC  float64 `json:"cpc"`
	CVR  float64 `json:"cvr"`
	CPA  float64 `json:"cpa"`
	ROAS float64 `json:"roas"`
}

// safeDiv is the uniform division rule: a zero denominator yields 0,
// never NaN or Inf. Every derived ratio goes through it.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Summarize sums the five metrics and derives ctr, cpc, cvr, cpa, roas.
func Summarize(rows []domain.Row) Totals {
	var t Totals
	for _, r := range rows {
		t.Impressions += r.Impressions
		t.Clicks += r.Clicks
		t.Cost += r.Cost
		t.Conversions += r.Conversions
		t.Revenue += r.Revenue
	}
	t.derive()
	return t
}

func (t *Totals) derive() {
	t.CTR = safeDiv(t.Clicks, t.Impressions)
	t.CPC = safeDiv(t.Cost, t.Clicks)
	t.CVR = safeDiv(t.Conversions, t.Clicks)
	t.CPA = safeDiv(t.Cost, t.Conversions)
	t.ROAS = safeDiv(t.Revenue, t.Cost)
}

// GroupRow is one partition of a dimensional grouping.
type GroupRow struct {
	Key string `json:"key"`
	Totals
}

const unknownBucket = "unknown"

// groupBy partitions rows by a dimension key. Keys are trimmed. When
// keepBlank is true a blank key is retained under its own "unknown"
// bucket; otherwise blank-keyed rows are excluded. Output sorts by
// descending clicks, then key, the default order for dashboard tables.
func groupBy(rows []domain.Row, key func(domain.Row) string, keepBlank bool) []GroupRow {
	buckets := make(map[string][]domain.Row)
	for _, r := range rows {
		k := strings.TrimSpace(key(r))
		if k == "" {
			if !keepBlank {
				continue
			}
			k = unknownBucket
		}
		buckets[k] = append(buckets[k], r)
	}

	out := make([]GroupRow, 0, len(buckets))
	for k, part := range buckets {
		out = append(out, GroupRow{Key: k, Totals: Summarize(part)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clicks != out[j].Clicks {
			return out[i].Clicks > out[j].Clicks
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GroupBySource partitions by source; blank sources keep their own bucket.
func GroupBySource(rows []domain.Row) []GroupRow {
	return groupBy(rows, func(r domain.Row) string { return r.Source }, true)
}

// GroupByDevice partitions by device; blank devices keep their own bucket.
func GroupByDevice(rows []domain.Row) []GroupRow {
	return groupBy(rows, func(r domain.Row) string { return r.Device }, true)
}

// GroupByCampaign partitions by campaign; blank campaigns keep their own bucket.
func GroupByCampaign(rows []domain.Row) []GroupRow {
	return groupBy(rows, func(r domain.Row) string { return r.Campaign }, true)
}

// GroupByKeyword partitions by keyword; rows without a keyword are excluded.
func GroupByKeyword(rows []domain.Row) []GroupRow {
	return groupBy(rows, func(r domain.Row) string { return r.Keyword }, false)
}

// GroupByCreative partitions by creative; rows without a creative are excluded.
func GroupByCreative(rows []domain.Row) []GroupRow {
	return groupBy(rows, func(r domain.Row) string { return r.Creative }, false)
}

// ProgressRate returns actual/goal. Goals are user input, so anything
// not strictly positive counts as unset and yields 0.
func ProgressRate(actual, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return actual / goal
}

// GoalProgress compares the data-relative current month against a goal.
type GoalProgress struct {
	Month  string           `json:"month"`
	Actual Totals           `json:"actual"`
	Goal   domain.GoalState `json:"goal"`
	Rates  ProgressRates    `json:"rates"`
}

type ProgressRates struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Progress computes goal attainment for the current month, where "current"
// means the most recent month present in the data, not the wall clock.
func Progress(rows []domain.Row, goal domain.GoalState) GoalProgress {
	month := CurrentMonthKey(rows)

	var monthRows []domain.Row
	for _, r := range rows {
		if monthKey(r.Date) == month && month != "" {
			monthRows = append(monthRows, r)
		}
	}

	actual := Summarize(monthRows)
	return GoalProgress{
		Month:  month,
		Actual: actual,
		Goal:   goal,
		Rates: ProgressRates{
			Impressions: ProgressRate(actual.Impressions, goal.Impressions),
			Clicks:      ProgressRate(actual.Clicks, goal.Clicks),
			Cost:        ProgressRate(actual.Cost, goal.Cost),
			Conversions: ProgressRate(actual.Conversions, goal.Conversions),
			Revenue:     ProgressRate(actual.Revenue, goal.Revenue),
		},
	}
}
