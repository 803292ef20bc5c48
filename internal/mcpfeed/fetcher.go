// Package mcpfeed implements the optional secondary market-data channel.
// It talks to the CoinGecko MCP server through an mcp-remote subprocess over
// stdio, discovers the markets tool, and derives an alternate
// gainers/losers/anomaly summary from its response. Every failure on this
// path degrades to an empty summary; it must never block or break the
// primary pipeline.
package mcpfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/coingecko"
	"github.com/vyntlabs/fomovynt/internal/models"
)

// DefaultRemoteURL is the CoinGecko MCP SSE endpoint bridged by mcp-remote.
const DefaultRemoteURL = "https://mcp.pro-api.coingecko.com/sse"

// marketsToolNames is the allow-list of tool names expected to serve the
// /coins/markets equivalent.
var marketsToolNames = map[string]bool{
	"get_coins_markets": true,
	"coins_markets":     true,
	"markets":           true,
	"get_markets":       true,
}

// Fetcher establishes one MCP session per fetch and turns the markets tool
// response into a Summary.
type Fetcher struct {
	apiKey    string
	remoteURL string
}

// NewFetcher creates a secondary-channel fetcher.
func NewFetcher(apiKey, remoteURL string) *Fetcher {
	if remoteURL == "" {
		remoteURL = DefaultRemoteURL
	}
	return &Fetcher{apiKey: apiKey, remoteURL: remoteURL}
}

// FetchSummary fetches listings over the MCP channel and derives the
// summary. Any transport, discovery, or parse failure yields an empty
// summary, never an error.
func (f *Fetcher) FetchSummary(ctx context.Context, topN, perPage int) models.Summary {
	if f.apiKey == "" {
		log.Debug().Msg("MCP summary skipped: no API key")
		return models.Summary{}
	}

	rows, err := f.callMarkets(ctx, perPage)
	if err != nil {
		log.Warn().Err(err).Msg("MCP summary failed")
		return models.Summary{}
	}

	return BuildSummary(rows, topN)
}

// callMarkets runs one full MCP session: spawn mcp-remote, initialize, list
// tools, pick the markets tool, invoke it, parse the text payload.
func (f *Fetcher) callMarkets(ctx context.Context, perPage int) ([]coingecko.Row, error) {
	env := []string{
		"MCP_REMOTE_NO_BROWSER=1",
		"MCP_REMOTE_TRANSPORT=sse-only",
	}

	c, err := client.NewStdioMCPClient(
		"npx", env,
		"-y", "mcp-remote@latest", f.remoteURL, "--apiKey="+f.apiKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mcp-remote: %w", err)
	}
	defer c.Close()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "fomovynt", Version: "1.0"}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("MCP initialize failed: %w", err)
	}

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("MCP tool discovery failed: %w", err)
	}

	toolName := ""
	available := make([]string, 0, len(tools.Tools))
	for _, t := range tools.Tools {
		available = append(available, t.Name)
		if toolName == "" && marketsToolNames[strings.ToLower(t.Name)] {
			toolName = t.Name
		}
	}
	if toolName == "" {
		return nil, fmt.Errorf("no markets tool found, available: %v", available)
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = toolName
	callReq.Params.Arguments = map[string]any{
		"vs_currency":             "usd",
		"order":                   "market_cap_desc",
		"per_page":                perPage, // server limit 250
		"page":                    1,
		"sparkline":               false,
		"price_change_percentage": "24h",
	}

	res, err := c.CallTool(ctx, callReq)
	if err != nil {
		return nil, fmt.Errorf("markets tool call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range res.Content {
		if tc, ok := block.(mcp.TextContent); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(tc.Text)
		}
	}

	return ParseMarketsPayload(sb.String()), nil
}

// ParseMarketsPayload parses a tool text response as JSON listings. Accepts
// a top-level list or a list under a "data" key; anything else, including
// non-JSON text, yields an empty slice.
func ParseMarketsPayload(text string) []coingecko.Row {
	text = strings.TrimSpace(text)
	if text == "" {
		return []coingecko.Row{}
	}

	var rows []coingecko.Row
	if err := json.Unmarshal([]byte(text), &rows); err == nil {
		return rows
	}

	var wrapped struct {
		Data []coingecko.Row `json:"data"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data
	}

	return []coingecko.Row{}
}

// BuildSummary derives the secondary summary from raw listing rows.
func BuildSummary(rows []coingecko.Row, topN int) models.Summary {
	gainers, losers := coingecko.RankMovers(rows, topN)
	return models.Summary{
		MarketsCount: len(rows),
		Gainers:      gainers,
		Losers:       losers,
		Strange:      coingecko.StrangeActivity(rows, topN),
		Fomo:         coingecko.Fomoize(gainers),
		Source:       "MCP CoinGecko",
	}
}
