// Package config provides configuration management for FomoVynt.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	// CoinGecko settings
	CoinGeckoAPIKey  string
	CoinGeckoBaseURL string

	// Secondary channel (CoinGecko MCP over mcp-remote)
	MCPRemoteURL string

	// Narrative service settings
	ClaudeAPIKey      string
	NarrativeProvider string // "anthropic" or "openai"
	NarrativeModel    string
	OpenAIAPIKey      string
	OpenAIEndpoint    string

	// Telegram settings
	TelegramBotToken string
	TelegramChatID   string

	// Report settings
	TopN          int
	PerPage       int
	ReportHourUTC int

	// Misc
	Debug bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{
		// CoinGecko
		CoinGeckoAPIKey:  getEnv("COINGECKO_API_KEY", ""),
		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://pro-api.coingecko.com/api/v3"),

		// Secondary channel
		MCPRemoteURL: getEnv("MCP_REMOTE_URL", "https://mcp.pro-api.coingecko.com/sse"),

		// Narrative service
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		NarrativeProvider: getEnv("NARRATIVE_PROVIDER", "anthropic"),
		NarrativeModel:    getEnv("NARRATIVE_MODEL", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIEndpoint:    getEnv("OPENAI_ENDPOINT", ""),

		// Telegram
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		// Report
		TopN:          getEnvInt("TOP_N", 5),
		PerPage:       getEnvInt("PER_PAGE", 250),
		ReportHourUTC: getEnvInt("REPORT_HOUR_UTC", 9),

		Debug: getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.CoinGeckoAPIKey == "" {
		log.Warn().Msg("COINGECKO_API_KEY not set, market data requests will be rejected upstream")
	}
	if c.ClaudeAPIKey == "" {
		log.Warn().Msg("CLAUDE_API_KEY not set, commentary falls back to canned text")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
