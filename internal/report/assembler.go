// Package report implements the report-assembly pipeline core: it merges the
// primary REST baseline with the optional secondary summary under the
// replace-on-non-empty fallback policy and derives the FOMO list when the
// secondary channel has nothing.
package report

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/coingecko"
	"github.com/vyntlabs/fomovynt/internal/models"
)

// SecondaryWait bounds how long one run waits for the secondary channel
// before proceeding without it. The fetch is abandoned on timeout, not
// cancelled mid-flight by the run itself.
const SecondaryWait = 45 * time.Second

// DefaultMajorIDs are the assets shown in the majors section.
var DefaultMajorIDs = []string{"bitcoin", "ethereum", "solana"}

// SummaryFetcher is the interface the assembler needs from the secondary
// channel. Implementations must degrade to an empty summary instead of
// returning errors.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, topN, perPage int) models.Summary
}

// Assembler builds one Report per run from the primary market client and an
// optional secondary fetcher.
type Assembler struct {
	market    *coingecko.Client
	secondary SummaryFetcher

	perPage       int
	secondaryWait time.Duration
}

// NewAssembler creates an assembler. secondary may be nil when the channel
// is not configured.
func NewAssembler(market *coingecko.Client, secondary SummaryFetcher, perPage int) *Assembler {
	if perPage <= 0 {
		perPage = 250
	}
	return &Assembler{
		market:        market,
		secondary:     secondary,
		perPage:       perPage,
		secondaryWait: SecondaryWait,
	}
}

// Assemble runs one full pipeline pass. Component failures degrade to empty
// or zero values; the returned report is always well-formed.
func (a *Assembler) Assemble(ctx context.Context, topN int) *models.Report {
	// REST baseline
	restGainers, restLosers, err := a.market.TopGainersLosers(ctx, topN, a.perPage)
	if err != nil {
		log.Warn().Err(err).Msg("Primary gainers/losers fetch failed")
		restGainers, restLosers = []models.Token{}, []models.Token{}
	}

	globalPct := a.market.GlobalChange24h(ctx)

	majors, err := a.market.MajorsSnapshot(ctx, DefaultMajorIDs)
	if err != nil {
		log.Warn().Err(err).Msg("Majors snapshot fetch failed")
		majors = map[string]models.MajorStat{}
	}

	globalFull := a.market.GlobalSnapshot(ctx)

	// Secondary enrichment, bounded so it can never stall the run
	sum := a.fetchSecondary(ctx, topN)

	// Prefer secondary lists when non-empty; no merging
	gainers := restGainers
	if len(sum.Gainers) > 0 {
		gainers = sum.Gainers
	}
	losers := restLosers
	if len(sum.Losers) > 0 {
		losers = sum.Losers
	}

	strange := sum.Strange
	if strange == nil {
		strange = []models.Token{}
	}

	fomo := sum.Fomo
	if len(fomo) == 0 {
		fomo = coingecko.Fomoize(gainers)
	}

	return &models.Report{
		GlobalChange24h: globalPct,
		Global:          globalFull,
		Majors:          majors,
		Gainers:         gainers,
		Losers:          losers,
		Strange:         strange,
		Fomo:            fomo,
		Sources: models.Sources{
			REST:            true,
			MCP:             !sum.Empty(),
			MCPMarketsCount: sum.MarketsCount,
		},
	}
}

// fetchSecondary runs the secondary fetch as its own task and joins it with
// a hard ceiling. When the ceiling is hit the task is abandoned and the run
// proceeds with an empty summary; the buffered channel lets the straggler
// finish without leaking a blocked goroutine.
func (a *Assembler) fetchSecondary(ctx context.Context, topN int) models.Summary {
	if a.secondary == nil {
		return models.Summary{}
	}

	resCh := make(chan models.Summary, 1)
	sctx, cancel := context.WithTimeout(ctx, a.secondaryWait)
	defer cancel()

	go func() {
		resCh <- a.secondary.FetchSummary(sctx, topN, a.perPage)
	}()

	select {
	case sum := <-resCh:
		if sum.Empty() {
			log.Debug().Msg("Secondary summary empty, using REST baseline")
		} else {
			log.Debug().Int("markets", sum.MarketsCount).Msg("Secondary summary merged")
		}
		return sum
	case <-sctx.Done():
		log.Warn().Dur("ceiling", a.secondaryWait).Msg("Secondary fetch timed out, proceeding without it")
		return models.Summary{}
	}
}
