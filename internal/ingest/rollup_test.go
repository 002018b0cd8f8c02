package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsync/internal/domain"
)

func TestRollupSumsPerDay(t *testing.T) {
	rows := []domain.Row{
		{Date: "2024-06-02", Impressions: 10, Clicks: 1, Cost: 100},
		{Date: "2024-06-01", Impressions: 100, Clicks: 5, Cost: 500, Conversions: 1, Revenue: 2000},
		{Date: "2024-06-01", Impressions: 50, Clicks: 3, Cost: 300, Conversions: 1, Revenue: 1000},
	}

	out := Rollup(rows, "ws-1", "naver_sa", domain.EntityTypeAccount, "cust-1")
	require.Len(t, out, 2)

	// Sorted by date.
	assert.Equal(t, "2024-06-01", out[0].Date)
	assert.Equal(t, 150.0, out[0].Impressions)
	assert.Equal(t, 8.0, out[0].Clicks)
	assert.Equal(t, 800.0, out[0].Cost)
	assert.Equal(t, 2.0, out[0].Conversions)
	assert.Equal(t, 3000.0, out[0].Revenue)

	assert.Equal(t, "2024-06-02", out[1].Date)
	assert.Equal(t, 10.0, out[1].Impressions)

	for _, m := range out {
		assert.Equal(t, "ws-1", m.WorkspaceID)
		assert.Equal(t, "naver_sa", m.Source)
		assert.Equal(t, domain.EntityTypeAccount, m.EntityType)
		assert.Equal(t, "cust-1", m.EntityID)
	}
}

func TestRollupEmptyInput(t *testing.T) {
	out := Rollup(nil, "ws-1", "naver_sa", domain.EntityTypeAccount, "cust-1")
	assert.Empty(t, out)
}
