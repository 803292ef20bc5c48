// Package coingecko provides a client for the CoinGecko Pro REST API.
// Implements the market listing and global aggregate endpoints used by the
// report pipeline, plus the normalization helpers shared with the secondary
// channel (both sources serve the same /coins/markets row shape).
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/models"
)

const (
	// DefaultBaseURL is the CoinGecko Pro API base.
	DefaultBaseURL = "https://pro-api.coingecko.com/api/v3"

	userAgent = "fomovynt/1.0"
)

// Row is one raw listing entry as returned by /coins/markets. Kept untyped
// so a single malformed field degrades to a zero value instead of failing
// the whole response.
type Row map[string]any

// Client provides access to the CoinGecko API.
type Client struct {
	http *resty.Client
}

// NewClient creates a new CoinGecko client. baseURL falls back to the Pro API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", userAgent).
			SetHeader("x-cg-pro-api-key", apiKey),
	}
}

// AsFloat coerces an untrusted JSON value to float64. Parse failure or a
// missing value yields def; this is the single defensive-coercion point for
// every numeric field coming off the wire.
func AsFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return def
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// NormalizeRow converts a raw listing entry into the uniform token shape.
func NormalizeRow(r Row) models.Token {
	name := asString(r["name"])
	if name == "" {
		name = asString(r["id"])
	}
	if name == "" {
		name = "?"
	}

	price := AsFloat(r["current_price"], 0)
	if price == 0 {
		price = AsFloat(r["price"], 0)
	}
	pct := r["price_change_percentage_24h"]
	if pct == nil {
		pct = r["pct"]
	}

	return models.Token{
		ID:     asString(r["id"]),
		Name:   name,
		Symbol: models.NormalizeSymbol(asString(r["symbol"])),
		Price:  price,
		Pct:    AsFloat(pct, 0),
	}
}

// RankMovers normalizes rows, drops entries with a zero or missing price and
// returns the topN gainers and losers by 24h percentage change. Sorting is
// stable, so ties keep the original fetch order.
func RankMovers(rows []Row, topN int) (gainers, losers []models.Token) {
	tokens := make([]models.Token, 0, len(rows))
	for _, r := range rows {
		t := NormalizeRow(r)
		if t.Price > 0 {
			tokens = append(tokens, t)
		}
	}

	desc := make([]models.Token, len(tokens))
	copy(desc, tokens)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Pct > desc[j].Pct })

	asc := make([]models.Token, len(tokens))
	copy(asc, tokens)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Pct < asc[j].Pct })

	if topN < 0 {
		topN = 0
	}
	if topN > len(desc) {
		topN = len(desc)
	}
	return desc[:topN], asc[:topN]
}

// Markets retrieves one page of market listings. A non-list response body
// yields an empty slice, not an error.
func (c *Client) Markets(ctx context.Context, perPage int, vsCurrency string) ([]Row, error) {
	if perPage <= 0 {
		perPage = 250
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency":             vsCurrency,
			"order":                   "market_cap_desc",
			"per_page":                strconv.Itoa(perPage),
			"page":                    "1",
			"sparkline":               "false",
			"price_change_percentage": "24h",
			"locale":                  "en",
		}).
		Get("/coins/markets")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("markets API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var rows []Row
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		log.Warn().Err(err).Msg("Markets response is not a list, treating as empty")
		return []Row{}, nil
	}

	log.Debug().Int("count", len(rows)).Msg("Fetched markets")

	return rows, nil
}

// TopGainersLosers fetches one listings page and returns the topN gainers
// and losers by 24h percentage change.
func (c *Client) TopGainersLosers(ctx context.Context, topN, perPage int) (gainers, losers []models.Token, err error) {
	rows, err := c.Markets(ctx, perPage, "usd")
	if err != nil {
		return nil, nil, err
	}
	gainers, losers = RankMovers(rows, topN)
	return gainers, losers, nil
}

// GlobalChange24h returns the global 24h market-cap change percentage, or
// nil when the field is absent or the call fails.
func (c *Client) GlobalChange24h(ctx context.Context) *float64 {
	data, err := c.global(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Global change fetch failed")
		return nil
	}
	v, ok := data["market_cap_change_percentage_24h_usd"]
	if !ok || v == nil {
		return nil
	}
	f := AsFloat(v, 0)
	return &f
}

// GlobalSnapshot returns the aggregate market snapshot. Any missing field
// defaults to zero; the call itself never fails the pipeline.
func (c *Client) GlobalSnapshot(ctx context.Context) models.GlobalSnapshot {
	data, err := c.global(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Global snapshot fetch failed, using zero values")
		return models.GlobalSnapshot{}
	}

	mcap, _ := data["total_market_cap"].(map[string]any)
	vol, _ := data["total_volume"].(map[string]any)
	dom, _ := data["market_cap_percentage"].(map[string]any)

	return models.GlobalSnapshot{
		MarketCapUSD:           AsFloat(mcap["usd"], 0),
		VolumeUSD:              AsFloat(vol["usd"], 0),
		MarketCapChange24hPct:  AsFloat(data["market_cap_change_percentage_24h_usd"], 0),
		BTCDominancePct:        AsFloat(dom["btc"], 0),
		ActiveCryptocurrencies: int(AsFloat(data["active_cryptocurrencies"], 0)),
		Markets:                int(AsFloat(data["markets"], 0)),
	}
}

// MajorsSnapshot returns the extended stats for the requested asset ids
// (BTC/ETH/SOL in the standard run). Assets missing from the listings page
// are simply omitted.
func (c *Client) MajorsSnapshot(ctx context.Context, ids []string) (map[string]models.MajorStat, error) {
	rows, err := c.Markets(ctx, 250, "usd")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Row, len(rows))
	for _, r := range rows {
		if id := asString(r["id"]); id != "" {
			byID[id] = r
		}
	}

	out := make(map[string]models.MajorStat, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			continue
		}
		out[id] = models.MajorStat{
			Name:      asString(r["name"]),
			Symbol:    models.NormalizeSymbol(asString(r["symbol"])),
			Price:     AsFloat(r["current_price"], 0),
			Pct24h:    AsFloat(r["price_change_percentage_24h"], 0),
			High24h:   AsFloat(r["high_24h"], 0),
			Low24h:    AsFloat(r["low_24h"], 0),
			Volume24h: AsFloat(r["total_volume"], 0),
			MarketCap: AsFloat(r["market_cap"], 0),
		}
	}

	return out, nil
}

// global calls the aggregate endpoint and unwraps the "data" envelope.
func (c *Client) global(ctx context.Context) (map[string]any, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/global")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch global data: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("global API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse global data: %w", err)
	}

	data, _ := body["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
