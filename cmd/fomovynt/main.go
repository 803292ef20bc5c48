// FomoVynt - snarky daily crypto market reports for Telegram.
// Runs the command bot and the daily report schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/coingecko"
	"github.com/vyntlabs/fomovynt/internal/config"
	"github.com/vyntlabs/fomovynt/internal/mcpfeed"
	"github.com/vyntlabs/fomovynt/internal/narrative"
	"github.com/vyntlabs/fomovynt/internal/report"
	"github.com/vyntlabs/fomovynt/internal/scheduler"
	"github.com/vyntlabs/fomovynt/internal/telegram"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("FomoVynt - Starting report bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize market data client
	cgClient := coingecko.NewClient(cfg.CoinGeckoAPIKey, cfg.CoinGeckoBaseURL)
	log.Info().Msg("CoinGecko client initialized")

	// Initialize the optional secondary channel
	var secondary report.SummaryFetcher
	if cfg.CoinGeckoAPIKey != "" {
		secondary = mcpfeed.NewFetcher(cfg.CoinGeckoAPIKey, cfg.MCPRemoteURL)
		log.Info().Str("url", cfg.MCPRemoteURL).Msg("MCP secondary channel initialized")
	} else {
		log.Warn().Msg("MCP secondary channel disabled (no API key)")
	}

	// Initialize report assembler
	assembler := report.NewAssembler(cgClient, secondary, cfg.PerPage)

	// Initialize narrative provider
	provider := newProvider(cfg)

	// Initialize report generator
	generator := narrative.NewGenerator(assembler, provider, cfg.TopN)
	log.Info().Msg("Report generator initialized")

	// Initialize Telegram client and command bot
	tgClient := telegram.NewClient(cfg.TelegramBotToken)
	bot := telegram.NewBot(tgClient, generator.DailyReport)

	// Initialize scheduler with the daily report job
	sched := scheduler.NewScheduler()
	sched.AddJob(&scheduler.Job{
		Name: "daily-report",
		Schedule: scheduler.Schedule{
			Type: scheduler.ScheduleDaily,
			Hour: cfg.ReportHourUTC,
		},
		Handler: func(ctx context.Context) error {
			if cfg.TelegramChatID == "" {
				log.Warn().Msg("TELEGRAM_CHAT_ID not set, skipping scheduled report")
				return nil
			}
			text := generator.DailyReport(ctx)
			return tgClient.SendMessage(ctx, cfg.TelegramChatID, text)
		},
	})

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	// Start all services
	go func() {
		if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Bot polling error")
		}
	}()

	sched.Start()

	log.Info().
		Int("report_hour_utc", cfg.ReportHourUTC).
		Msg("FomoVynt bot running")

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	cancel()
	sched.Stop()

	log.Info().Msg("FomoVynt bot stopped")
}

// newProvider selects the narrative backend from configuration. A missing
// key disables the provider; commentary then falls back to canned text.
func newProvider(cfg *config.Config) narrative.Provider {
	switch cfg.NarrativeProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("Narrative provider disabled (no OPENAI_API_KEY)")
			return nil
		}
		log.Info().Str("provider", "openai").Msg("Narrative provider initialized")
		return narrative.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIEndpoint, cfg.NarrativeModel)
	default:
		if cfg.ClaudeAPIKey == "" {
			log.Warn().Msg("Narrative provider disabled (no CLAUDE_API_KEY)")
			return nil
		}
		log.Info().Str("provider", "anthropic").Msg("Narrative provider initialized")
		return narrative.NewAnthropicProvider(cfg.ClaudeAPIKey, cfg.NarrativeModel)
	}
}
