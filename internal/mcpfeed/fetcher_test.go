package mcpfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyntlabs/fomovynt/internal/coingecko"
)

func TestParseMarketsPayloadList(t *testing.T) {
	rows := ParseMarketsPayload(`[{"id": "bitcoin", "current_price": 50000}]`)
	require.Len(t, rows, 1)
	assert.Equal(t, "bitcoin", rows[0]["id"])
}

func TestParseMarketsPayloadDataEnvelope(t *testing.T) {
	rows := ParseMarketsPayload(`{"data": [{"id": "ethereum"}, {"id": "solana"}]}`)
	require.Len(t, rows, 2)
	assert.Equal(t, "ethereum", rows[0]["id"])
}

func TestParseMarketsPayloadGarbage(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"prose", "sorry, the markets tool is unavailable"},
		{"object without data", `{"result": "ok"}`},
		{"data not a list", `{"data": {"id": "bitcoin"}}`},
		{"scalar", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ParseMarketsPayload(tt.in))
		})
	}
}

func TestBuildSummary(t *testing.T) {
	rows := []coingecko.Row{
		{"id": "pump", "name": "Pump", "symbol": "pmp", "current_price": 2.0, "price_change_percentage_24h": 44.0},
		{"id": "flat", "name": "Flat", "symbol": "flt", "current_price": 1.0, "price_change_percentage_24h": 0.4},
		{"id": "dump", "name": "Dump", "symbol": "dmp", "current_price": 3.0, "price_change_percentage_24h": -28.0},
	}

	sum := BuildSummary(rows, 2)

	assert.Equal(t, 3, sum.MarketsCount)
	assert.Equal(t, "MCP CoinGecko", sum.Source)
	assert.False(t, sum.Empty())

	require.Len(t, sum.Gainers, 2)
	assert.Equal(t, "PMP", sum.Gainers[0].Symbol)

	require.Len(t, sum.Losers, 2)
	assert.Equal(t, "DMP", sum.Losers[0].Symbol)

	// Both directions of the 20% threshold land in strange
	require.Len(t, sum.Strange, 2)

	// Fomo derives from the gainers above the threshold
	require.Len(t, sum.Fomo, 1)
	assert.Equal(t, "PMP", sum.Fomo[0].Symbol)
	require.NotNil(t, sum.Fomo[0].FomoProfit)
	assert.Equal(t, 44.0, *sum.Fomo[0].FomoProfit)
	assert.Equal(t, 144.0, *sum.Fomo[0].FomoFinal)
}

func TestBuildSummaryEmptyRows(t *testing.T) {
	sum := BuildSummary([]coingecko.Row{}, 5)
	assert.True(t, sum.Empty())
}
