package coingecko

import (
	"math"

	"github.com/vyntlabs/fomovynt/internal/models"
)

const (
	// AnomalyThresholdPct is the absolute 24h move that qualifies an asset
	// for the strange-activity and FOMO lists.
	AnomalyThresholdPct = 20.0

	// FomoStake is the hypothetical position size the FOMO outcome is
	// computed against. Purely illustrative, not a real position.
	FomoStake = 100.0

	// FomoCap bounds the FOMO list length.
	FomoCap = 3
)

// StrangeActivity returns up to topN assets whose absolute 24h change meets
// the anomaly threshold, regardless of direction.
func StrangeActivity(rows []Row, topN int) []models.Token {
	if topN <= 0 {
		return []models.Token{}
	}
	out := make([]models.Token, 0, topN)
	for _, r := range rows {
		t := NormalizeRow(r)
		if math.Abs(t.Pct) >= AnomalyThresholdPct {
			out = append(out, t)
			if len(out) >= topN {
				break
			}
		}
	}
	return out
}

// Fomoize filters gainers above the anomaly threshold and annotates each
// with the synthetic outcome of a FomoStake position at that move, rounded
// to 2 decimal places. At most FomoCap entries are returned.
func Fomoize(gainers []models.Token) []models.Token {
	out := make([]models.Token, 0, FomoCap)
	for _, t := range gainers {
		if t.Pct < AnomalyThresholdPct {
			continue
		}
		profit := round2(FomoStake * (t.Pct / 100))
		final := round2(FomoStake + profit)
		t.FomoProfit = &profit
		t.FomoFinal = &final
		out = append(out, t)
		if len(out) >= FomoCap {
			break
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
