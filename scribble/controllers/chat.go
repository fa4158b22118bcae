// scribble/controllers/chat.go
package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"scribble/scribble/config"
	"scribble/scribble/services/llm"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

const (
	maxMessageChars = 2000
	maxHistory      = 12
	maxUserTurns    = 25
)

type ChatController struct {
	llm *llm.Client
	cfg config.Config
}

func NewChatController(client *llm.Client, cfg config.Config) *ChatController {
	return &ChatController{llm: client, cfg: cfg}
}

// sanitize filters the inbound history: only user/assistant roles survive,
// each content is truncated, and only the most recent maxHistory entries
// travel upstream. The user-turn count is taken before capping so the hard
// conversation limit sees the whole payload.
func sanitize(messages []types.ChatMessage) ([]types.ChatMessage, int) {
	var out []types.ChatMessage
	userTurns := 0
	for _, m := range messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		if m.Role == "user" {
			userTurns++
		}
		content := m.Content
		if runes := []rune(content); len(runes) > maxMessageChars {
			content = string(runes[:maxMessageChars])
		}
		out = append(out, types.ChatMessage{Role: m.Role, Content: content})
	}
	if len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	return out, userTurns
}

// Prepare validates a chat payload and builds the upstream history with the
// hidden system prompt prepended. On failure it returns a status code and a
// short user-facing message.
func (c *ChatController) Prepare(payload types.ChatPayload) ([]types.ChatMessage, int, string) {
	if len(payload.Messages) == 0 {
		return nil, http.StatusBadRequest, "Messages are required"
	}
	messages, userTurns := sanitize(payload.Messages)
	if len(messages) == 0 {
		return nil, http.StatusBadRequest, "Messages are required"
	}
	if userTurns > maxUserTurns {
		return nil, http.StatusBadRequest, "Conversation is too long"
	}
	if c.cfg.UpstreamKey == "" {
		logging.ErrorLogger.Error("chat proxy called without upstream credentials")
		return nil, http.StatusInternalServerError, "Server is not configured"
	}

	wire := make([]types.ChatMessage, 0, len(messages)+1)
	wire = append(wire, types.ChatMessage{Role: "system", Content: c.cfg.SystemPrompt})
	wire = append(wire, messages...)
	return wire, 0, ""
}

// Completion proxies a chat request upstream and relays the SSE body
// untouched. Upstream failures become a generic 502; the upstream error
// body never reaches the client.
func (c *ChatController) Completion(w http.ResponseWriter, r *http.Request) {
	var payload types.ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Messages are required"})
		return
	}
	wire, status, msg := c.Prepare(payload)
	if msg != "" {
		writeJSON(w, status, types.ErrorResponse{Error: msg})
		return
	}

	body, err := c.llm.OpenStream(r.Context(), wire)
	if err != nil {
		logging.ErrorLogger.Error("upstream chat request failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, types.ErrorResponse{Error: "The assistant is unreachable right now"})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				logging.ErrorLogger.Error("upstream stream read error", zap.Error(err))
			}
			return
		}
	}
}

// StreamDeltas runs a prepared history upstream and decodes the SSE body
// into text deltas, for the websocket relay.
func (c *ChatController) StreamDeltas(ctx context.Context, wire []types.ChatMessage) (<-chan string, error) {
	return c.llm.RunStream(ctx, wire)
}
