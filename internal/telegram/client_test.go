package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		http: resty.New().
			SetBaseURL(srv.URL + "/bot123:test").
			SetTimeout(5 * time.Second),
	}
}

func TestSendMessagePayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok": true, "result": {}}`))
	})

	err := c.SendMessage(context.Background(), "42", "🔥 <b>FOMO</b>")
	require.NoError(t, err)

	assert.Equal(t, "/bot123:test/sendMessage", gotPath)
	assert.Equal(t, "42", gotBody["chat_id"])
	assert.Equal(t, "🔥 <b>FOMO</b>", gotBody["text"])
	assert.Equal(t, "HTML", gotBody["parse_mode"])
	assert.Equal(t, true, gotBody["disable_web_page_preview"])
}

func TestSendMessageHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	})

	err := c.SendMessage(context.Background(), "42", "hello")
	assert.Error(t, err)
}

func TestGetUpdates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:test/getUpdates", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("offset"))
		assert.Equal(t, "30", r.URL.Query().Get("timeout"))
		w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 7, "message": {"message_id": 1, "text": "/start", "chat": {"id": 99}, "from": {"id": 5, "first_name": "Sam"}}},
			{"update_id": 8, "message": {"message_id": 2, "text": "/report", "chat": {"id": 99}}}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 7, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, int64(7), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, int64(99), updates[0].Message.Chat.ID)
	assert.Equal(t, "Sam", updates[0].Message.From.FirstName)
	assert.Nil(t, updates[1].Message.From)
}

func TestGetUpdatesNotOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false}`))
	})

	_, err := c.GetUpdates(context.Background(), 0, 30)
	assert.Error(t, err)
}

func TestCommandParsing(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/start", "/start"},
		{"/START", "/start"},
		{"/report@FomoVyntBot", "/report"},
		{"/report now please", "/report"},
		{"  /start  ", "/start"},
		{"hello", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, command(tt.in), "input %q", tt.in)
	}
}

func TestHandleUpdateStart(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok": true}`))
	})

	b := NewBot(c, func(ctx context.Context) string { return "report text" })
	b.handleUpdate(context.Background(), Update{
		UpdateID: 1,
		Message: &Message{
			Text: "/start",
			Chat: Chat{ID: 77},
			From: &User{FirstName: "Sam"},
		},
	})

	assert.Equal(t, "77", gotBody["chat_id"])
	text, _ := gotBody["text"].(string)
	assert.Contains(t, text, "Hey, Sam!")
	assert.Contains(t, text, "daily basis")
}

func TestHandleUpdateReport(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok": true}`))
	})

	called := false
	b := NewBot(c, func(ctx context.Context) string {
		called = true
		return "🔥 report"
	})
	b.handleUpdate(context.Background(), Update{
		UpdateID: 2,
		Message:  &Message{Text: "/report", Chat: Chat{ID: 77}},
	})

	assert.True(t, called)
	assert.Equal(t, "🔥 report", gotBody["text"])
}

func TestHandleUpdateIgnoresNonCommands(t *testing.T) {
	requests := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"ok": true}`))
	})

	b := NewBot(c, func(ctx context.Context) string { return "" })
	b.handleUpdate(context.Background(), Update{Message: &Message{Text: "gm", Chat: Chat{ID: 1}}})
	b.handleUpdate(context.Background(), Update{Message: nil})

	assert.Zero(t, requests)
}
