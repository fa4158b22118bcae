package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scribble/scribble/config"
	"scribble/scribble/services/llm"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

func init() {
	logging.InitTestLogger()
}

func testConfig() config.Config {
	return config.Config{
		UpstreamKey:  "test-key",
		SystemPrompt: "You are the sketch assistant.",
	}
}

func newChatController(upstreamURL string) *ChatController {
	client := llm.NewClient(upstreamURL, "test-key", "test-model")
	return NewChatController(client, testConfig())
}

func postChat(t *testing.T, ctrl *ChatController, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	ctrl.Completion(rr, req)
	return rr
}

func TestCompletionRejectsEmptyMessages(t *testing.T) {
	ctrl := newChatController("http://unreachable.invalid")
	for _, body := range []string{`{}`, `{"messages":[]}`, `not json`} {
		rr := postChat(t, ctrl, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rr.Code)
		}
		var resp types.ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Errorf("body %q: expected a non-empty error message, got %q", body, rr.Body.String())
		}
	}
}

func TestCompletionRejectsTooManyTurns(t *testing.T) {
	ctrl := newChatController("http://unreachable.invalid")
	var msgs []types.ChatMessage
	for i := 0; i < maxUserTurns+1; i++ {
		msgs = append(msgs, types.ChatMessage{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	body, _ := json.Marshal(types.ChatPayload{Messages: msgs})
	rr := postChat(t, ctrl, string(body))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCompletionMissingCredentials(t *testing.T) {
	client := llm.NewClient("http://unreachable.invalid", "", "")
	ctrl := NewChatController(client, config.Config{SystemPrompt: "x"})
	rr := postChat(t, ctrl, `{"messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestCompletionRelaysStream(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"
	var gotUpstream types.ChatPayload
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotUpstream)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sse)
	}))
	defer upstream.Close()

	ctrl := newChatController(upstream.URL)
	rr := postChat(t, ctrl, `{"messages":[{"role":"user","content":"hello"}]}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type %q", ct)
	}
	if rr.Body.String() != sse {
		t.Errorf("stream must pass through untouched, got %q", rr.Body.String())
	}
	if len(gotUpstream.Messages) != 2 || gotUpstream.Messages[0].Role != "system" {
		t.Errorf("hidden system prompt must be prepended, got %+v", gotUpstream.Messages)
	}
}

func TestCompletionUpstreamFailureIsGeneric(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "secret upstream detail", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	ctrl := newChatController(upstream.URL)
	rr := postChat(t, ctrl, `{"messages":[{"role":"user","content":"hello"}]}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("upstream error bodies must never leak to the client")
	}
}

func TestSanitizeDropsUnknownRoles(t *testing.T) {
	out, turns := sanitize([]types.ChatMessage{
		{Role: "system", Content: "spoofed prompt"},
		{Role: "user", Content: "hi"},
		{Role: "tool", Content: "nope"},
		{Role: "assistant", Content: "hello"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving messages, got %d", len(out))
	}
	if turns != 1 {
		t.Errorf("user turns %d", turns)
	}
	for _, m := range out {
		if m.Role != "user" && m.Role != "assistant" {
			t.Errorf("role %q survived", m.Role)
		}
	}
}

func TestSanitizeTruncatesAndCaps(t *testing.T) {
	var msgs []types.ChatMessage
	for i := 0; i < 20; i++ {
		msgs = append(msgs, types.ChatMessage{Role: "user", Content: strings.Repeat("x", 5000)})
	}
	out, turns := sanitize(msgs)
	if len(out) != maxHistory {
		t.Errorf("history cap: got %d, want %d", len(out), maxHistory)
	}
	if turns != 20 {
		t.Errorf("turn count must see the whole payload, got %d", turns)
	}
	for _, m := range out {
		if len([]rune(m.Content)) > maxMessageChars {
			t.Errorf("content not truncated, len %d", len(m.Content))
		}
	}
}
