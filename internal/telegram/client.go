// Package telegram provides the Telegram Bot API client used for message
// delivery and the command-polling bot shell.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const apiBase = "https://api.telegram.org/bot"

// sendTimeout bounds one sendMessage call.
const sendTimeout = 20 * time.Second

// Client provides access to the Telegram Bot API for one bot token.
type Client struct {
	http *resty.Client
}

// NewClient creates a Telegram client. The client timeout leaves headroom
// for long-poll getUpdates calls; sends are bounded separately.
func NewClient(botToken string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(apiBase + botToken).
			SetTimeout(50 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// SendMessage posts text to a chat in HTML parse mode with link previews
// suppressed. The delivery status is logged; callers treat failures as
// non-fatal.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(sctx).
		SetBody(map[string]any{
			"chat_id":                  chatID,
			"text":                     text,
			"parse_mode":               "HTML",
			"disable_web_page_preview": true,
		}).
		Post("/sendMessage")

	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Info().
		Int("status", resp.StatusCode()).
		Str("chat_id", chatID).
		Msg("Message delivery attempted")
	log.Debug().Str("response", resp.String()).Msg("Telegram response")

	if resp.StatusCode() != 200 {
		return fmt.Errorf("sendMessage returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

// ChatIDString renders a numeric chat id the way sendMessage expects it.
func ChatIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// GetUpdates long-polls for new updates past offset, holding the connection
// open for up to pollTimeout seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout int) ([]Update, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":          strconv.FormatInt(offset, 10),
			"timeout":         strconv.Itoa(pollTimeout),
			"allowed_updates": `["message"]`,
		}).
		Get("/getUpdates")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch updates: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("getUpdates returned %d: %s", resp.StatusCode(), resp.String())
	}

	var body struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse updates: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("getUpdates not ok: %s", resp.String())
	}

	return body.Result, nil
}
