// Package conversation owns the persisted conversation log and the
// request/reply exchange with the assistant service.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/api"
)

const (
	// Greeting seeds a log that has no usable persisted state
	Greeting = "Hello 👋! I'm your AI Assistant. I can help you book, cancel, or reschedule appointments, and check VIP availability."
	// ResetGreeting seeds the log after a reset
	ResetGreeting = "Hello 👋! I'm your AI Assistant. How can I help you today?"
	// FallbackReply is used when the assistant answers without reply text
	FallbackReply = "❌ Sorry, I couldn't understand that."
)

var (
	// ErrEmptyMessage is returned when the trimmed text is empty
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSendInFlight is returned when a send is attempted while a reply is awaited
	ErrSendInFlight = errors.New("a message is already awaiting a reply")
)

// Assistant is the remote conversational collaborator
type Assistant interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// IdentitySource resolves the current session identity
type IdentitySource interface {
	Current(ctx context.Context) (internal.Identity, error)
}

// Session is the conversation session: one ordered log, persisted after every mutation.
// At most one request is in flight at a time.
type Session struct {
	store     internal.KVStore
	ids       IdentitySource
	assistant Assistant
	model     string
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	conv     *internal.Conversation
	awaiting atomic.Bool
}

// Option configures a Session
type Option func(*Session)

// WithModel selects the assistant backend model sent as "provider"
func WithModel(model string) Option {
	return func(s *Session) {
		s.model = model
	}
}

// WithClock overrides the message timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a Session. Call Initialize before use.
func New(store internal.KVStore, ids IdentitySource, assistant Assistant, opts ...Option) *Session {
	s := &Session{
		store:     store,
		ids:       ids,
		assistant: assistant,
		model:     "claude",
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the log from storage, seeding a greeting when it is
// absent or unreadable. It never fails.
func (s *Session) Initialize(ctx context.Context) *internal.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, internal.ErrNotFound) {
			internal.LogWarn("Discarding stored conversation: %v", err)
		}
		conv = s.seed(Greeting)
	}
	s.conv = conv
	return s.snapshotLocked()
}

// load reads the persisted log. It accepts the bare message array written by
// earlier clients as well as the full conversation object.
func (s *Session) load(ctx context.Context) (*internal.Conversation, error) {
	data, err := s.store.Get(ctx, internal.KeyChatHistory)
	if err != nil {
		return nil, err
	}
	conv, err := decodeConversation(data)
	if err != nil {
		return nil, &internal.ParseError{Source: "store", Key: internal.KeyChatHistory, Err: err}
	}
	if len(conv.Messages) == 0 {
		return nil, &internal.ParseError{Source: "store", Key: internal.KeyChatHistory, Err: errors.New("empty log")}
	}
	if conv.ID == "" {
		conv.ID = s.newID()
	}
	return conv, nil
}

func (s *Session) seed(text string) *internal.Conversation {
	now := s.now()
	return &internal.Conversation{
		ID:        s.newID(),
		Messages:  []internal.Message{{Sender: internal.SenderAssistant, Text: text, Timestamp: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ensureLocked lazily initializes when a caller skipped Initialize
func (s *Session) ensureLocked(ctx context.Context) {
	if s.conv != nil {
		return
	}
	conv, err := s.load(ctx)
	if err != nil {
		conv = s.seed(Greeting)
	}
	s.conv = conv
}

// Attach sets the provider that travels with the next sends
func (s *Session) Attach(ctx context.Context, providerRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(ctx)
	s.conv.ProviderRef = providerRef
	s.persistLocked(ctx)
}

// ProviderRef returns the attached provider, if any
func (s *Session) ProviderRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return ""
	}
	return s.conv.ProviderRef
}

// Awaiting reports whether a reply is outstanding
func (s *Session) Awaiting() bool {
	return s.awaiting.Load()
}

// Log returns a copy of the ordered messages
func (s *Session) Log() []internal.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return nil
	}
	out := make([]internal.Message, len(s.conv.Messages))
	copy(out, s.conv.Messages)
	return out
}

// Conversation returns a copy of the whole conversation
func (s *Session) Conversation() *internal.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *internal.Conversation {
	if s.conv == nil {
		return nil
	}
	c := *s.conv
	c.Messages = make([]internal.Message, len(s.conv.Messages))
	copy(c.Messages, s.conv.Messages)
	return &c
}

// Send appends the user's message, asks the assistant and appends exactly one
// assistant message: the reply, a fallback, or the failure description.
// Precondition failures (empty text, missing identity, send in flight) leave the
// log untouched and are returned as errors; remote failures are not returned,
// they end up in the log.
func (s *Session) Send(ctx context.Context, text string) (internal.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return internal.Message{}, ErrEmptyMessage
	}

	id, err := s.ids.Current(ctx)
	if err != nil {
		if errors.Is(err, internal.ErrIdentityMissing) {
			return internal.Message{}, &internal.IdentityMissingError{Op: "send"}
		}
		return internal.Message{}, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if !s.awaiting.CompareAndSwap(false, true) {
		return internal.Message{}, ErrSendInFlight
	}
	defer s.awaiting.Store(false)

	s.mu.Lock()
	s.ensureLocked(ctx)
	s.appendLocked(ctx, internal.SenderUser, text)
	req := api.ChatRequest{
		Message:  text,
		ClientID: id.ClientID,
		Provider: s.model,
		AdminID:  s.conv.ProviderRef,
	}
	s.mu.Unlock()

	internal.LogDebug("Sending message for client %s (provider ref %q)", id.ClientID, req.AdminID)
	reply := s.exchange(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ctx, internal.SenderAssistant, reply), nil
}

// exchange performs the round trip and always yields displayable text
func (s *Session) exchange(ctx context.Context, req api.ChatRequest) string {
	res, err := s.assistant.Chat(ctx, req)
	if err != nil {
		internal.LogWarn("Chat request failed: %v", err)
		return "❌ Server error: " + internal.FailureDetail(err)
	}
	if res == nil || strings.TrimSpace(res.Reply) == "" {
		return FallbackReply
	}
	return res.Reply
}

func (s *Session) appendLocked(ctx context.Context, sender internal.Sender, text string) internal.Message {
	msg := internal.Message{Sender: sender, Text: text, Timestamp: s.now()}
	s.conv.Messages = append(s.conv.Messages, msg)
	s.conv.UpdatedAt = msg.Timestamp
	s.persistLocked(ctx)
	return msg
}

// Reset replaces the log with a single greeting. The identity is untouched.
func (s *Session) Reset(ctx context.Context) *internal.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv = s.seed(ResetGreeting)
	s.persistLocked(ctx)
	return s.snapshotLocked()
}

func (s *Session) persistLocked(ctx context.Context) {
	// Persist even when the caller's context is already cancelled
	ctx = context.WithoutCancel(ctx)
	if err := internal.PutJSON(ctx, s.store, internal.KeyChatHistory, s.conv); err != nil {
		internal.LogError("Failed to persist conversation: %v", err)
	}
}
