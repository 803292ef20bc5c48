// Package models defines the data records exchanged between pipeline stages.
package models

import "strings"

// Token represents one tradable asset snapshot at fetch time.
// FomoProfit/FomoFinal are only set for entries on the FOMO list.
type Token struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Pct    float64 `json:"pct"`

	FomoProfit *float64 `json:"fomo_100_profit,omitempty"`
	FomoFinal  *float64 `json:"fomo_100_final,omitempty"`
}

// GlobalSnapshot holds aggregate market state at fetch time.
type GlobalSnapshot struct {
	MarketCapUSD           float64 `json:"market_cap_usd"`
	VolumeUSD              float64 `json:"volume_usd"`
	MarketCapChange24hPct  float64 `json:"market_cap_change_24h_pct"`
	BTCDominancePct        float64 `json:"btc_dominance_pct"`
	ActiveCryptocurrencies int     `json:"active_cryptocurrencies"`
	Markets                int     `json:"markets"`
}

// MajorStat holds the extended per-asset fields shown for the majors section.
type MajorStat struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Pct24h    float64 `json:"pct_24h"`
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	Volume24h float64 `json:"volume_24h"`
	MarketCap float64 `json:"market_cap"`
}

// Summary is the secondary-channel view of the market: an alternate set of
// gainers/losers/anomalies derived from the same listings endpoint but served
// over the tool-invocation channel. Empty() reports whether the channel
// contributed anything at all.
type Summary struct {
	MarketsCount int     `json:"markets_count"`
	Gainers      []Token `json:"gainers"`
	Losers       []Token `json:"losers"`
	Strange      []Token `json:"strange"`
	Fomo         []Token `json:"fomo"`
	Source       string  `json:"source,omitempty"`
}

// Empty reports whether the summary carries no data.
func (s Summary) Empty() bool {
	return s.MarketsCount == 0 &&
		len(s.Gainers) == 0 && len(s.Losers) == 0 &&
		len(s.Strange) == 0 && len(s.Fomo) == 0
}

// Sources records which channels contributed to a report.
type Sources struct {
	REST            bool `json:"rest"`
	MCP             bool `json:"mcp"`
	MCPMarketsCount int  `json:"mcp_markets_count,omitempty"`
}

// Report is the merged output of one pipeline run. Built once per run,
// immutable thereafter, consumed by the narrative generator and the
// formatter, then discarded.
type Report struct {
	GlobalChange24h *float64             `json:"global_change_24h"`
	Global          GlobalSnapshot       `json:"global"`
	Majors          map[string]MajorStat `json:"majors"`
	Gainers         []Token              `json:"gainers"`
	Losers          []Token              `json:"losers"`
	Strange         []Token              `json:"strange"`
	Fomo            []Token              `json:"fomo"`
	Sources         Sources              `json:"sources"`
}

// Payload is the trimmed view of a report handed to the narrative service
// and the formatter: top-5 gainers/losers/strange, top-3 fomo, plus a date
// label.
type Payload struct {
	Date    string               `json:"date"`
	Global  GlobalSnapshot       `json:"global"`
	Majors  map[string]MajorStat `json:"majors"`
	Gainers []Token              `json:"gainers"`
	Losers  []Token              `json:"losers"`
	Strange []Token              `json:"strange"`
	Fomo    []Token              `json:"fomo"`
	Notes   PayloadNotes         `json:"notes"`
}

// PayloadNotes carries report metadata the model may use for context.
type PayloadNotes struct {
	GlobalChange24h *float64 `json:"global_change_24h"`
}

// Commentary holds the generated text for one report, keyed by asset symbol
// for the per-token notes.
type Commentary struct {
	Fomo          string            `json:"fomo"`
	MarketComment string            `json:"market_comment"`
	MajorsComment string            `json:"majors_comment"`
	GainersNotes  map[string]string `json:"gainers_notes"`
	LosersNotes   map[string]string `json:"losers_notes"`
}

// Placeholder is the literal used when the model is unsure about a field.
const Placeholder = "—"

// CannedCommentary is the static fallback used when the narrative service
// fails or returns malformed output.
func CannedCommentary() Commentary {
	return Commentary{
		Fomo:          "Market feels range-bound; if you missed a pump, breathe. Monday-mode: on.",
		MarketComment: "Cautious bid persists; liquidity pockets drive selective moves.",
		MajorsComment: "BTC steady, ETH waiting for catalyst, SOL resilient on dips.",
		GainersNotes:  map[string]string{},
		LosersNotes:   map[string]string{},
	}
}

// NormalizeSymbol upper-cases a raw symbol the way every table and notes
// mapping expects it.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
