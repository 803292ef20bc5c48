package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// pollTimeout is the getUpdates long-poll hold in seconds.
const pollTimeout = 30

// ReportFunc produces the formatted report text for an on-demand request.
type ReportFunc func(ctx context.Context) string

// Bot is the command surface: a long-polling loop dispatching /start and
// /report.
type Bot struct {
	client *Client
	report ReportFunc

	offset int64
}

// NewBot creates the command bot.
func NewBot(client *Client, report ReportFunc) *Bot {
	return &Bot{client: client, report: report}
}

// Run polls for commands until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Info().Msg("Bot is running, send /start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := b.client.GetUpdates(ctx, b.offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("Update poll failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			b.handleUpdate(ctx, u)
		}
	}
}

// handleUpdate dispatches one inbound message.
func (b *Bot) handleUpdate(ctx context.Context, u Update) {
	if u.Message == nil {
		return
	}

	chatID := ChatIDString(u.Message.Chat.ID)
	cmd := command(u.Message.Text)

	switch cmd {
	case "/start":
		firstName := "there"
		if u.Message.From != nil && u.Message.From.FirstName != "" {
			firstName = u.Message.From.FirstName
		}
		text := fmt.Sprintf("Hey, %s! You're subscribed to the Fomo Vynt bot 🥲\nYour first report will be ready on a daily basis.", firstName)
		if err := b.client.SendMessage(ctx, chatID, text); err != nil {
			log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to send greeting")
		}

	case "/report":
		log.Info().Str("chat_id", chatID).Msg("On-demand report requested")
		text := b.report(ctx)
		if err := b.client.SendMessage(ctx, chatID, text); err != nil {
			log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to send report")
		}
	}
}

// command extracts the leading bot command from a message, stripping the
// @botname suffix used in group chats.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
