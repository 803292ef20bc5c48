// Package format renders an assembled report plus commentary into the
// Telegram HTML message. Section order is fixed; every dynamic string is
// escaped before insertion since names, symbols, and commentary all come
// from untrusted upstream sources.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vyntlabs/fomovynt/internal/models"
)

// htmlEscaper escapes the characters Telegram's HTML parse mode requires.
// Quotes stay literal, matching the message style.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape makes a dynamic string safe for the HTML message body.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// signedPct renders a percentage with two decimals and an explicit sign for
// non-negative values.
func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// groupThousands renders a dollar amount with thousands separators and no
// decimals.
func groupThousands(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// tokenRows renders the per-asset table used by the gainers, losers, and
// strange sections. Empty input renders the placeholder dash.
func tokenRows(tokens []models.Token) string {
	if len(tokens) == 0 {
		return models.Placeholder
	}

	lines := make([]string, 0, len(tokens))
	for _, t := range tokens {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		if name == "" {
			name = "?"
		}
		lines = append(lines, fmt.Sprintf("%s (%s) | %s | $%.6f",
			Escape(name), Escape(models.NormalizeSymbol(t.Symbol)), signedPct(t.Pct), t.Price))
	}
	return strings.Join(lines, "\n")
}

// majorLine renders one majors row, or "<label>: n/a" when the asset is
// missing from the snapshot.
func majorLine(majors map[string]models.MajorStat, id, label string) string {
	row, ok := majors[id]
	if !ok {
		return label + ": n/a"
	}
	return fmt.Sprintf("%s: %s ($%.2f) range $%.0f-$%.0f vol $%.0f",
		label, signedPct(row.Pct24h), row.Price, row.Low24h, row.High24h, row.Volume24h)
}

// noteBullets renders the per-symbol commentary bullets in table order,
// skipping symbols without a non-empty note.
func noteBullets(tokens []models.Token, notes map[string]string) string {
	upper := make(map[string]string, len(notes))
	for k, v := range notes {
		if v != "" {
			upper[models.NormalizeSymbol(k)] = Escape(v)
		}
	}

	lines := make([]string, 0, len(tokens))
	for _, t := range tokens {
		sym := models.NormalizeSymbol(t.Symbol)
		if note, ok := upper[sym]; ok && note != "" {
			lines = append(lines, fmt.Sprintf("• %s: %s", sym, note))
		}
	}
	return strings.Join(lines, "\n")
}

// Message renders the six fixed sections: FOMO & Takeaways, Market
// Overview, Majors, Top Gainers, Top Losers, Strange Activity.
func Message(payload models.Payload, comments models.Commentary) string {
	fomoTxt := Escape(orPlaceholder(comments.Fomo))
	marketC := Escape(orPlaceholder(comments.MarketComment))
	majorsC := Escape(orPlaceholder(comments.MajorsComment))

	g := payload.Global

	parts := []string{}

	// FOMO & Takeaways (commentary only)
	parts = append(parts, "🔥 <b>FOMO & Takeaways</b>\n"+fomoTxt)

	// Market Overview (our numbers) plus one comment
	parts = append(parts, fmt.Sprintf(
		"📊 <b>Market Overview</b>\nCap $%s | 24h %s | Vol $%s | BTC dom %.2f%%",
		groupThousands(g.MarketCapUSD),
		signedPct(g.MarketCapChange24hPct),
		groupThousands(g.VolumeUSD),
		g.BTCDominancePct,
	))
	if marketC != "" && marketC != models.Placeholder {
		parts = append(parts, "<i>"+marketC+"</i>")
	}

	// Majors plus one comment
	parts = append(parts, "🪙 <b>Majors</b>\n"+
		Escape(majorLine(payload.Majors, "bitcoin", "BTC"))+"\n"+
		Escape(majorLine(payload.Majors, "ethereum", "ETH"))+"\n"+
		Escape(majorLine(payload.Majors, "solana", "SOL")))
	if majorsC != "" && majorsC != models.Placeholder {
		parts = append(parts, "<i>"+majorsC+"</i>")
	}

	// Gainers table plus per-token bullets if present
	parts = append(parts, "🚀 <b>Top Gainers (24h)</b>\n"+tokenRows(payload.Gainers))
	if bullets := noteBullets(payload.Gainers, comments.GainersNotes); bullets != "" {
		parts = append(parts, bullets)
	}

	// Losers table plus per-token bullets if present
	parts = append(parts, "💀 <b>Top Losers (24h)</b>\n"+tokenRows(payload.Losers))
	if bullets := noteBullets(payload.Losers, comments.LosersNotes); bullets != "" {
		parts = append(parts, bullets)
	}

	// Strange Activity (table only)
	strangeTxt := tokenRows(payload.Strange)
	if strings.TrimSpace(strangeTxt) == models.Placeholder {
		strangeTxt = "None today."
	}
	parts = append(parts, "🧐 <b>Strange Activity</b>\n"+strangeTxt)

	return strings.Join(parts, "\n\n")
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.Placeholder
	}
	return s
}
