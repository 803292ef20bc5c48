package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsBody = `[
	{"id": "bitcoin", "name": "Bitcoin", "symbol": "btc", "current_price": 50000, "price_change_percentage_24h": 25.0, "high_24h": 51000, "low_24h": 48000, "total_volume": 30000000000, "market_cap": 980000000000},
	{"id": "ethereum", "name": "Ethereum", "symbol": "eth", "current_price": 3000, "price_change_percentage_24h": -4.2, "high_24h": 3150, "low_24h": 2950, "total_volume": 12000000000, "market_cap": 360000000000},
	{"id": "deadcoin", "name": "Deadcoin", "symbol": "dead", "current_price": 0, "price_change_percentage_24h": 99.0},
	{"id": "nullcoin", "name": "Nullcoin", "symbol": "null", "current_price": null, "price_change_percentage_24h": null},
	{"id": "smallcap", "name": "Smallcap", "symbol": "smol", "current_price": 0.004321, "price_change_percentage_24h": -31.5}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL)
}

func TestMarketsSendsAPIKey(t *testing.T) {
	var gotKey, gotPerPage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-pro-api-key")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Write([]byte(marketsBody))
	})

	rows, err := c.Markets(context.Background(), 100, "usd")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "100", gotPerPage)
}

func TestMarketsNonListResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "rate limited"}`))
	})

	rows, err := c.Markets(context.Background(), 250, "usd")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMarketsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Markets(context.Background(), 250, "usd")
	assert.Error(t, err)
}

func TestTopGainersLosers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsBody))
	})

	gainers, losers, err := c.TopGainersLosers(context.Background(), 2, 250)
	require.NoError(t, err)

	// Zero and null priced entries are filtered before ranking
	require.Len(t, gainers, 2)
	assert.Equal(t, "Bitcoin", gainers[0].Name)
	assert.Equal(t, "BTC", gainers[0].Symbol)
	assert.Equal(t, 25.0, gainers[0].Pct)
	assert.Equal(t, 50000.0, gainers[0].Price)
	assert.Equal(t, "Ethereum", gainers[1].Name)

	require.Len(t, losers, 2)
	assert.Equal(t, "SMOL", losers[0].Symbol)
	assert.Equal(t, -31.5, losers[0].Pct)
	assert.Equal(t, "ETH", losers[1].Symbol)
}

func TestTopGainersLosersTruncation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsBody))
	})

	gainers, losers, err := c.TopGainersLosers(context.Background(), 10, 250)
	require.NoError(t, err)
	assert.Len(t, gainers, 3)
	assert.Len(t, losers, 3)
}

func TestGlobalSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {
			"total_market_cap": {"usd": 2500000000000},
			"total_volume": {"usd": 120000000000},
			"market_cap_change_percentage_24h_usd": -1.25,
			"market_cap_percentage": {"btc": 52.3, "eth": 17.1},
			"active_cryptocurrencies": 10500,
			"markets": 800
		}}`))
	})

	snap := c.GlobalSnapshot(context.Background())
	assert.Equal(t, 2.5e12, snap.MarketCapUSD)
	assert.Equal(t, 1.2e11, snap.VolumeUSD)
	assert.Equal(t, -1.25, snap.MarketCapChange24hPct)
	assert.Equal(t, 52.3, snap.BTCDominancePct)
	assert.Equal(t, 10500, snap.ActiveCryptocurrencies)
	assert.Equal(t, 800, snap.Markets)
}

func TestGlobalSnapshotDefaultsOnMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	})

	snap := c.GlobalSnapshot(context.Background())
	assert.Zero(t, snap.MarketCapUSD)
	assert.Zero(t, snap.BTCDominancePct)
}

func TestGlobalSnapshotZeroOnFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	snap := c.GlobalSnapshot(context.Background())
	assert.Zero(t, snap)
}

func TestGlobalChange24h(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"market_cap_change_percentage_24h_usd": 3.75}}`))
	})

	v := c.GlobalChange24h(context.Background())
	require.NotNil(t, v)
	assert.Equal(t, 3.75, *v)
}

func TestGlobalChange24hAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	})

	assert.Nil(t, c.GlobalChange24h(context.Background()))
}

func TestMajorsSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsBody))
	})

	majors, err := c.MajorsSnapshot(context.Background(), []string{"bitcoin", "ethereum", "solana"})
	require.NoError(t, err)

	// Solana is absent from the page and simply omitted
	require.Len(t, majors, 2)

	btc := majors["bitcoin"]
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, 50000.0, btc.Price)
	assert.Equal(t, 25.0, btc.Pct24h)
	assert.Equal(t, 51000.0, btc.High24h)
	assert.Equal(t, 48000.0, btc.Low24h)
	assert.Equal(t, 3e10, btc.Volume24h)
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 1.5, 1.5},
		{"int", 3, 3},
		{"numeric string", "2.25", 2.25},
		{"garbage string", "n/a", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsFloat(tt.in, 0))
		})
	}
}

func TestNormalizeRowFallsBackToID(t *testing.T) {
	tok := NormalizeRow(Row{"id": "mystery", "symbol": "myst", "current_price": 1.0})
	assert.Equal(t, "mystery", tok.Name)
	assert.Equal(t, "MYST", tok.Symbol)

	tok = NormalizeRow(Row{})
	assert.Equal(t, "?", tok.Name)
}
