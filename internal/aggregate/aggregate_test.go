package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsync/internal/domain"
)

func TestSummarizeDerivesRatios(t *testing.T) {
	totals := Summarize([]domain.Row{
		{Date: "2024-06-01", Impressions: 1000, Clicks: 50, Cost: 25000, Conversions: 5, Revenue: 100000},
		{Date: "2024-06-02", Impressions: 1000, Clicks: 50, Cost: 25000, Conversions: 5, Revenue: 100000},
	})

	assert.Equal(t, 2000.0, totals.Impressions)
	assert.Equal(t, 100.0, totals.Clicks)
	assert.Equal(t, 50000.0, totals.Cost)
	assert.Equal(t, 10.0, totals.Conversions)
	assert.Equal(t, 200000.0, totals.Revenue)

	assert.InDelta(t, 0.05, totals.CTR, 1e-9)  // clicks/impressions
	assert.InDelta(t, 500.0, totals.CPC, 1e-9) // cost/clicks
	assert.InDelta(t, 0.1, totals.CVR, 1e-9)   // conversions/clicks
	assert.InDelta(t, 5000.0, totals.CPA, 1e-9)
	assert.InDelta(t, 4.0, totals.ROAS, 1e-9)
}

func TestSummarizeSafeDivision(t *testing.T) {
	totals := Summarize([]domain.Row{{Date: "2024-06-01"}})

	assert.Equal(t, 0.0, totals.CTR)
	assert.Equal(t, 0.0, totals.CPC)
	assert.Equal(t, 0.0, totals.CVR)
	assert.Equal(t, 0.0, totals.CPA)
	assert.Equal(t, 0.0, totals.ROAS)
}

func TestSummarizeEmptyInput(t *testing.T) {
	totals := Summarize(nil)
	assert.Equal(t, 0.0, totals.Impressions)
	assert.Equal(t, 0.0, totals.ROAS)
}

func TestGroupByDeviceKeepsBlankAsUnknown(t *testing.T) {
	groups := GroupByDevice([]domain.Row{
		{Date: "2024-06-01", Device: "MOBILE", Clicks: 10},
		{Date: "2024-06-01", Device: "PC", Clicks: 30},
		{Date: "2024-06-01", Device: "  ", Clicks: 5},
	})

	require.Len(t, groups, 3)
	// Descending clicks.
	assert.Equal(t, "PC", groups[0].Key)
	assert.Equal(t, "MOBILE", groups[1].Key)
	assert.Equal(t, "unknown", groups[2].Key)
	assert.Equal(t, 5.0, groups[2].Clicks)
}

func TestGroupByKeywordExcludesBlank(t *testing.T) {
	groups := GroupByKeyword([]domain.Row{
		{Date: "2024-06-01", Keyword: "shoes", Clicks: 10},
		{Date: "2024-06-01", Keyword: "", Clicks: 99},
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "shoes", groups[0].Key)
}

func TestGroupByCreativeExcludesBlank(t *testing.T) {
	groups := GroupByCreative([]domain.Row{
		{Date: "2024-06-01", Creative: "banner-a", Clicks: 1},
		{Date: "2024-06-01", Clicks: 50},
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "banner-a", groups[0].Key)
}

func TestGroupBySourceSummarizesPartitions(t *testing.T) {
	groups := GroupBySource([]domain.Row{
		{Date: "2024-06-01", Source: "naver_sa", Impressions: 100, Clicks: 10, Cost: 500},
		{Date: "2024-06-02", Source: "naver_sa", Impressions: 100, Clicks: 10, Cost: 500},
		{Date: "2024-06-01", Source: "csv_upload", Impressions: 10, Clicks: 1, Cost: 10},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "naver_sa", groups[0].Key)
	assert.Equal(t, 200.0, groups[0].Impressions)
	assert.InDelta(t, 25.0, groups[0].CPC, 1e-9)
}

func TestGroupRowsSortTieBreaksOnKey(t *testing.T) {
	groups := GroupByDevice([]domain.Row{
		{Date: "2024-06-01", Device: "b", Clicks: 5},
		{Date: "2024-06-01", Device: "a", Clicks: 5},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Key)
	assert.Equal(t, "b", groups[1].Key)
}

func TestProgressRate(t *testing.T) {
	assert.InDelta(t, 0.5, ProgressRate(50, 100), 1e-9)
	assert.Equal(t, 0.0, ProgressRate(50, 0))
	assert.Equal(t, 0.0, ProgressRate(50, -100))
}

func TestProgressUsesDataRelativeMonth(t *testing.T) {
	rows := []domain.Row{
		{Date: "2024-05-15", Clicks: 999},
		{Date: "2024-06-01", Clicks: 40, Cost: 1000},
		{Date: "2024-06-10", Clicks: 10, Cost: 500},
	}
	goal := domain.GoalState{Clicks: 100, Cost: 3000}

	progress := Progress(rows, goal)
	assert.Equal(t, "2024-06", progress.Month)
	// Only June rows count toward the June goal.
	assert.Equal(t, 50.0, progress.Actual.Clicks)
	assert.InDelta(t, 0.5, progress.Rates.Clicks, 1e-9)
	assert.InDelta(t, 0.5, progress.Rates.Cost, 1e-9)
	assert.Equal(t, 0.0, progress.Rates.Revenue)
}

func TestProgressEmptyData(t *testing.T) {
	progress := Progress(nil, domain.GoalState{Clicks: 100})
	assert.Equal(t, "", progress.Month)
	assert.Equal(t, 0.0, progress.Rates.Clicks)
}
