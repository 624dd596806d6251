// Package session holds the per-visit chat state: an append-only transcript
// and the single-in-flight-turn guard. Nothing here is persisted; a session
// lives for the page visit only.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Sender identifies who produced a transcript message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Pending is the transient assistant placeholder shown while a turn resolves.
const Pending = "..."

// ErrTurnInFlight is returned when a submission arrives while the previous
// turn is still resolving. Mirrors the disabled submit control in the UI.
var ErrTurnInFlight = errors.New("session: a turn is already in flight")

// Message is one transcript entry.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Session is the context object passed through the orchestrator. The
// transcript is append-only except for the most recent assistant
// placeholder, which is replaced in place once the turn resolves.
type Session struct {
	ID   string
	Lang string

	mu       sync.Mutex
	messages []Message
	pending  bool
}

// New creates a session for the given UI language.
func New(lang string) *Session {
	return &Session{ID: uuid.NewString(), Lang: lang}
}

// Begin records the user question and appends the assistant placeholder,
// marking the turn in flight. It fails with ErrTurnInFlight when the
// previous turn has not resolved yet.
func (s *Session) Begin(question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return ErrTurnInFlight
	}
	s.messages = append(s.messages,
		Message{Text: question, Sender: SenderUser},
		Message{Text: Pending, Sender: SenderAssistant},
	)
	s.pending = true
	return nil
}

// Resolve replaces the pending placeholder with the final answer and ends
// the turn. Calling Resolve without an in-flight turn is a no-op.
func (s *Session) Resolve(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return
	}
	s.messages[len(s.messages)-1].Text = answer
	s.pending = false
}

// Append adds a message outside the turn flow (e.g. the one-time greeting).
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// InFlight reports whether a turn is currently resolving.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
