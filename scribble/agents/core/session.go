// Package core drives one chat conversation: message history, the
// idle/awaiting state machine, streaming consumption, rate limiting and
// persistence. One request is in flight at a time; sending while a reply
// is streaming is a no-op.
package core

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scribble/scribble/agents/actions"
	"scribble/scribble/services/ratelimit"
	"scribble/scribble/sources/store/dao"
	"scribble/scribble/sources/store/models"
	"scribble/scribble/utils/directive"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

const (
	WelcomeID     = "welcome"
	welcomeText   = "Hey! I'm the resident sketch assistant. Ask me about the projects, the resume, or just say hi."
	wrapUpText    = "We've covered a lot of ground! Give the pages a wander and come back any time. I'll still be here."
	maxInputChars = 500
	historyForLLM = 12
)

// fallbackNotes replace an empty or failed reply. A raw error string never
// lands in a chat bubble.
var fallbackNotes = []string{
	"Hmm, my pencil just snapped. Mind asking that again?",
	"I drifted off sketching for a second there. One more time?",
	"That one got smudged on the way over. Try me again!",
}

// Message is one conversation turn as held in memory. Directive is only set
// on finalized assistant messages; IsOld marks rehydrated history.
type Message struct {
	ID        string
	Role      string // "user" or "assistant"
	Content   string
	Timestamp time.Time
	IsOld     bool
	Directive directive.Directive
}

// Streamer is the outbound side of a send: the llm.Client satisfies it, and
// tests substitute fakes.
type Streamer interface {
	RunStream(ctx context.Context, messages []types.ChatMessage) (<-chan string, error)
}

type Outcome int

const (
	// Streamed: a reply was streamed (or replaced by a fallback note).
	Streamed Outcome = iota
	// Ignored: busy or empty input; nothing happened.
	Ignored
	// WrappedUp: the turn cap was reached; a canned wrap-up was appended.
	WrappedUp
	// RateLimited: the local limiter refused; RetryAfter carries the wait.
	RateLimited
	// Cancelled: the request was aborted before any content arrived.
	Cancelled
)

type SendResult struct {
	Outcome    Outcome
	RetryAfter int      // seconds, set when Outcome == RateLimited
	Message    *Message // final assistant message, when one exists
}

type Config struct {
	MaxTurns  int // soft cap on user messages per conversation
	StoredCap int // persisted message cap
	LimitKey  string
}

type Session struct {
	mu       sync.Mutex
	cfg      Config
	llm      Streamer
	store    *dao.ConversationDAO // nil disables persistence
	limiter  *ratelimit.Limiter
	messages []Message
	awaiting bool
	cancel   context.CancelFunc

	// OnFragment, when set, receives the display text (directive tags
	// already stripped) after every streamed fragment.
	OnFragment func(display string)

	pickNote func(n int) int
}

func NewSession(cfg Config, llm Streamer, limiter *ratelimit.Limiter, store *dao.ConversationDAO) *Session {
	s := &Session{
		cfg:      cfg,
		llm:      llm,
		limiter:  limiter,
		store:    store,
		pickNote: rand.Intn,
	}
	s.hydrate()
	return s
}

func newWelcome() Message {
	return Message{
		ID:        WelcomeID,
		Role:      "assistant",
		Content:   welcomeText,
		Timestamp: time.Now(),
		IsOld:     true,
	}
}

// hydrate loads persisted history, marks it old, and prepends a fresh
// welcome message. The welcome message itself is never persisted.
func (s *Session) hydrate() {
	s.messages = []Message{newWelcome()}

	if s.store == nil {
		return
	}
	stored, err := s.store.Load(context.Background())
	if err != nil {
		logging.ErrorLogger.Error("failed to load conversation", zap.Error(err))
		return
	}
	for _, m := range stored {
		s.messages = append(s.messages, Message{
			ID:        m.MessageID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			IsOld:     true,
		})
	}
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Awaiting reports whether a reply is currently streaming.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Cancel aborts the in-flight request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) userTurns() int {
	n := 0
	for _, m := range s.messages {
		if m.Role == "user" {
			n++
		}
	}
	return n
}

// Send runs one user turn end to end: validation, turn cap, rate limit,
// streaming, finalization, persistence. It blocks until the reply settles.
func (s *Session) Send(ctx context.Context, text string) SendResult {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxInputChars {
		text = string(runes[:maxInputChars])
	}
	if text == "" {
		return SendResult{Outcome: Ignored}
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return SendResult{Outcome: Ignored}
	}

	if s.userTurns() >= s.cfg.MaxTurns {
		wrapUp := s.appendLocked("assistant", wrapUpText)
		s.persistLocked()
		s.mu.Unlock()
		return SendResult{Outcome: WrappedUp, Message: wrapUp}
	}

	if s.limiter != nil && !s.limiter.Allow(s.cfg.LimitKey) {
		retry := s.limiter.RetryAfter(s.cfg.LimitKey)
		s.mu.Unlock()
		return SendResult{Outcome: RateLimited, RetryAfter: retry}
	}

	s.appendLocked("user", text)
	placeholder := s.appendLocked("assistant", "")
	placeholderID := placeholder.ID
	history := s.wireHistoryLocked()
	s.awaiting = true
	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.awaiting = false
		s.cancel = nil
		s.persistLocked()
		s.mu.Unlock()
	}()

	return s.stream(streamCtx, placeholderID, history)
}

// stream consumes the reply, growing the placeholder after each fragment
// and settling it once the stream ends, errors out or is cancelled.
func (s *Session) stream(ctx context.Context, placeholderID string, history []types.ChatMessage) SendResult {
	var accumulator strings.Builder

	ch, err := s.llm.RunStream(ctx, history)
	if err != nil {
		if ctx.Err() != nil {
			// aborted while the connection was still opening
			s.remove(placeholderID)
			return SendResult{Outcome: Cancelled}
		}
		logging.ErrorLogger.Error("chat stream failed to open", zap.Error(err))
		note := fallbackNotes[s.pickNote(len(fallbackNotes))]
		msg := s.settle(placeholderID, note, directive.Directive{Kind: directive.None})
		return SendResult{Outcome: Streamed, Message: msg}
	}

	for delta := range ch {
		accumulator.WriteString(delta)
		display := directive.StripNavigation(accumulator.String())
		s.updateContent(placeholderID, display)
		if s.OnFragment != nil {
			s.OnFragment(display)
		}
	}

	if ctx.Err() != nil {
		if accumulator.Len() == 0 {
			// nothing arrived before the abort: drop the placeholder
			s.remove(placeholderID)
			return SendResult{Outcome: Cancelled}
		}
		// a half sentence beats nothing: keep the partial text as final
		clean, dir := directive.Parse(accumulator.String())
		msg := s.settle(placeholderID, clean, dir)
		return SendResult{Outcome: Streamed, Message: msg}
	}

	if accumulator.Len() == 0 {
		note := fallbackNotes[s.pickNote(len(fallbackNotes))]
		msg := s.settle(placeholderID, note, directive.Directive{Kind: directive.None})
		return SendResult{Outcome: Streamed, Message: msg}
	}

	clean, dir := directive.Parse(accumulator.String())
	msg := s.settle(placeholderID, clean, dir)
	return SendResult{Outcome: Streamed, Message: msg}
}

// AddLocalExchange appends a user message and a fully-formed reply from the
// action registry, bypassing the network entirely.
func (s *Session) AddLocalExchange(userText string, def *actions.ActionDef) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked("user", userText)
	reply := s.appendLocked("assistant", def.Response)
	reply.Directive = def.Directive()
	s.persistLocked()
	return reply
}

// Clear truncates history back to the welcome message and wipes the store.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []Message{newWelcome()}
	if s.store != nil {
		if err := s.store.Clear(context.Background()); err != nil {
			logging.ErrorLogger.Error("failed to clear conversation store", zap.Error(err))
		}
	}
}

func (s *Session) appendLocked(role, content string) *Message {
	s.messages = append(s.messages, Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	return &s.messages[len(s.messages)-1]
}

func (s *Session) updateContent(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			return
		}
	}
}

func (s *Session) settle(id, content string, dir directive.Directive) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.messages[i].Directive = dir
			out := s.messages[i]
			return &out
		}
	}
	return nil
}

func (s *Session) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// wireHistoryLocked builds the outbound message list: welcome and the empty
// placeholder are skipped, and only the most recent turns travel.
func (s *Session) wireHistoryLocked() []types.ChatMessage {
	var out []types.ChatMessage
	for _, m := range s.messages {
		if m.ID == WelcomeID || m.Content == "" {
			continue
		}
		out = append(out, types.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if len(out) > historyForLLM {
		out = out[len(out)-historyForLLM:]
	}
	return out
}

// persistLocked writes the capped, filtered snapshot: welcome excluded,
// transient fields stripped, last StoredCap messages retained.
func (s *Session) persistLocked() {
	if s.store == nil {
		return
	}
	var snapshot []models.StoredMessage
	for _, m := range s.messages {
		if m.ID == WelcomeID || m.Content == "" {
			continue
		}
		snapshot = append(snapshot, models.StoredMessage{
			MessageID: m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	if err := s.store.Replace(context.Background(), snapshot, s.cfg.StoredCap); err != nil {
		logging.ErrorLogger.Error("failed to persist conversation", zap.Error(err))
	}
}
