// postreport generates one report and posts it to the default chat, then
// exits. Intended for cron-style invocation.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/coingecko"
	"github.com/vyntlabs/fomovynt/internal/config"
	"github.com/vyntlabs/fomovynt/internal/mcpfeed"
	"github.com/vyntlabs/fomovynt/internal/narrative"
	"github.com/vyntlabs/fomovynt/internal/report"
	"github.com/vyntlabs/fomovynt/internal/telegram"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.TelegramChatID == "" {
		log.Fatal().Msg("TELEGRAM_CHAT_ID is required")
	}

	cgClient := coingecko.NewClient(cfg.CoinGeckoAPIKey, cfg.CoinGeckoBaseURL)

	var secondary report.SummaryFetcher
	if cfg.CoinGeckoAPIKey != "" {
		secondary = mcpfeed.NewFetcher(cfg.CoinGeckoAPIKey, cfg.MCPRemoteURL)
	}

	assembler := report.NewAssembler(cgClient, secondary, cfg.PerPage)

	var provider narrative.Provider
	if cfg.ClaudeAPIKey != "" {
		provider = narrative.NewAnthropicProvider(cfg.ClaudeAPIKey, cfg.NarrativeModel)
	}

	generator := narrative.NewGenerator(assembler, provider, cfg.TopN)

	ctx := context.Background()

	log.Info().Msg("Generating report")
	text := generator.DailyReport(ctx)

	log.Info().Msg("Sending report to Telegram")
	tgClient := telegram.NewClient(cfg.TelegramBotToken)
	if err := tgClient.SendMessage(ctx, cfg.TelegramChatID, text); err != nil {
		log.Error().Err(err).Msg("Report delivery failed")
	}
}
