// Package narrative asks a language model for short per-section commentary
// on an assembled report and merges it with the deterministic message
// template. The model is held to a strict JSON output shape; anything it
// gets wrong is repaired or replaced with canned text so the formatter
// always receives well-formed commentary.
package narrative

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vyntlabs/fomovynt/internal/format"
	"github.com/vyntlabs/fomovynt/internal/models"
	"github.com/vyntlabs/fomovynt/internal/report"
)

// SystemPrompt sets the bot's voice for every commentary request.
const SystemPrompt = "You are Fomo TG Bot: snarky but useful. " +
	"Be concise and punchy but never toxic. " +
	"Strictly use provided numbers for context; you need to add plausible reasoning/news if widely-known. " +
	"Keep outputs no so short but readable."

// Provider is the narrative completion service interface.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator turns an assembled report into the final message text.
type Generator struct {
	assembler *report.Assembler
	provider  Provider
	topN      int
}

// NewGenerator creates a generator. provider may be nil, in which case the
// canned commentary is always used.
func NewGenerator(assembler *report.Assembler, provider Provider, topN int) *Generator {
	if topN <= 0 {
		topN = 5
	}
	return &Generator{assembler: assembler, provider: provider, topN: topN}
}

// DailyReport runs the full pipeline and returns the formatted message.
func (g *Generator) DailyReport(ctx context.Context) string {
	rep := g.assembler.Assemble(ctx, g.topN)
	payload := BuildPayload(rep, time.Now())
	comments := g.Comments(ctx, payload)
	return format.Message(payload, comments)
}

// BuildPayload trims a report to what the model and the formatter see:
// top-5 gainers/losers/strange, top-3 fomo, plus the date label.
func BuildPayload(rep *models.Report, now time.Time) models.Payload {
	return models.Payload{
		Date:    now.Format("Mon, 2006-01-02"),
		Global:  rep.Global,
		Majors:  rep.Majors,
		Gainers: capTokens(rep.Gainers, 5),
		Losers:  capTokens(rep.Losers, 5),
		Strange: capTokens(rep.Strange, 5),
		Fomo:    capTokens(rep.Fomo, 3),
		Notes:   models.PayloadNotes{GlobalChange24h: rep.GlobalChange24h},
	}
}

func capTokens(ts []models.Token, n int) []models.Token {
	if ts == nil {
		return []models.Token{}
	}
	if len(ts) > n {
		return ts[:n]
	}
	return ts
}

// commentShape mirrors the exact key set requested from the model.
type commentShape struct {
	Fomo          string            `json:"fomo"`
	MarketComment string            `json:"market_comment"`
	MajorsComment string            `json:"majors_comment"`
	GainersNotes  map[string]string `json:"gainers_notes"`
	LosersNotes   map[string]string `json:"losers_notes"`
}

// buildCommentPrompt asks for just comments as compact JSON with enumerated
// per-field length caps.
func buildCommentPrompt(payload models.Payload) string {
	template := commentShape{
		GainersNotes: map[string]string{},
		LosersNotes:  map[string]string{},
	}
	for _, t := range payload.Gainers {
		template.GainersNotes[t.Symbol] = ""
	}
	for _, t := range payload.Losers {
		template.LosersNotes[t.Symbol] = ""
	}

	templateJSON, _ := json.Marshal(template)
	contextJSON, _ := json.Marshal(payload)

	return "Return ONLY valid JSON matching this exact shape and key set.\n" +
		"Lengths: fomo<=180, market_comment<=220, majors_comment<=220, per-token notes<=80.\n" +
		"If unsure, put '" + models.Placeholder + "'. No markdown, no code fences.\n\n" +
		string(templateJSON) +
		"\n\nContext data:\n" +
		string(contextJSON)
}

// Comments asks the provider for the commentary JSON and repairs its shape.
// Any network or parse failure substitutes the canned commentary.
func (g *Generator) Comments(ctx context.Context, payload models.Payload) models.Commentary {
	if g.provider == nil {
		return models.CannedCommentary()
	}

	raw, err := g.provider.Complete(ctx, SystemPrompt, buildCommentPrompt(payload))
	if err != nil {
		log.Warn().Err(err).Msg("Narrative service failed, using canned commentary")
		return models.CannedCommentary()
	}

	comments, err := ParseComments(raw)
	if err != nil {
		log.Warn().Err(err).Msg("Narrative output unparseable, using canned commentary")
		return models.CannedCommentary()
	}

	return comments
}

// ParseComments extracts the JSON object from a raw model response and
// normalizes it to a full Commentary: missing scalar keys become the
// placeholder, missing or non-map note keys become empty mappings.
func ParseComments(raw string) (models.Commentary, error) {
	raw = extractObject(raw)

	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.Commentary{}, err
	}

	return models.Commentary{
		Fomo:          scalarOr(data["fomo"], models.Placeholder),
		MarketComment: scalarOr(data["market_comment"], models.Placeholder),
		MajorsComment: scalarOr(data["majors_comment"], models.Placeholder),
		GainersNotes:  notesOrEmpty(data["gainers_notes"]),
		LosersNotes:   notesOrEmpty(data["losers_notes"]),
	}, nil
}

// extractObject slices from the first '{' to the last '}' so prose or
// markdown fences around the JSON don't break parsing.
func extractObject(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end != -1 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func scalarOr(raw json.RawMessage, def string) string {
	if raw == nil {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func notesOrEmpty(raw json.RawMessage) map[string]string {
	if raw == nil {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}
