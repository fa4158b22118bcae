// scribble/controllers/suggest.go
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"scribble/scribble/services/llm"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

const (
	suggestTurns     = 4
	suggestMaxLines  = 2
	suggestMaxChars  = 80
	suggestTimeout   = 8 * time.Second
	suggestMaxTokens = 60
)

const suggestPrompt = "Based on this conversation, write exactly two short " +
	"follow-up questions the visitor might ask next. One per line, no " +
	"numbering, no quotes, under ten words each."

type SuggestController struct {
	llm *llm.Client
}

func NewSuggestController(client *llm.Client) *SuggestController {
	return &SuggestController{llm: client}
}

// Suggest asks the model for up to two follow-up lines. Suggestions are an
// enhancement: every upstream failure, parse failure or timeout degrades to
// an empty list, never an error status.
func (c *SuggestController) Suggest(w http.ResponseWriter, r *http.Request) {
	var payload types.ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Messages) == 0 {
		writeJSON(w, http.StatusOK, types.SuggestResponse{Suggestions: []string{}})
		return
	}

	history := payload.Messages
	if len(history) > suggestTurns {
		history = history[len(history)-suggestTurns:]
	}
	wire := make([]types.ChatMessage, 0, len(history)+1)
	wire = append(wire, types.ChatMessage{Role: "system", Content: suggestPrompt})
	wire = append(wire, history...)

	ctx, cancel := context.WithTimeout(r.Context(), suggestTimeout)
	defer cancel()

	content, err := c.llm.Run(ctx, wire, suggestMaxTokens)
	if err != nil {
		logging.AppLogger.Info("suggestion request degraded", zap.Error(err))
		writeJSON(w, http.StatusOK, types.SuggestResponse{Suggestions: []string{}})
		return
	}

	writeJSON(w, http.StatusOK, types.SuggestResponse{Suggestions: parseSuggestions(content)})
}

// parseSuggestions turns model output into at most two trimmed,
// length-bounded lines, shedding bullets and numbering.
func parseSuggestions(content string) []string {
	out := []string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > suggestMaxChars {
			line = string(runes[:suggestMaxChars])
		}
		out = append(out, line)
		if len(out) == suggestMaxLines {
			break
		}
	}
	return out
}
