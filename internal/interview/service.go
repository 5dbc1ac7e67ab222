package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/interview_voice/internal/history"
)

// per-message framing overhead used by the chat format
const tokensPerMessage = 4

type Service struct {
	store     history.Store
	chat      ChatClient
	tokenizer Tokenizer
	maxTokens int
	log       *logger.ZapLogger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

// WithTokenBudget trims the prompt to maxTokens using tok. Zero or nil disables trimming.
func WithTokenBudget(tok Tokenizer, maxTokens int) Option {
	return func(s *Service) {
		s.tokenizer = tok
		s.maxTokens = maxTokens
	}
}

func NewService(store history.Store, chat ChatClient, log *logger.ZapLogger, opts ...Option) *Service {
	s := &Service{
		store: store,
		chat:  chat,
		log:   log,
		locks: make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession opens a new conversation seeded with the interviewer persona.
func (s *Service) StartSession(ctx context.Context, topic string) (string, error) {
	id := uuid.NewString()
	if err := s.store.Append(ctx, id, history.Message{Role: history.RoleSystem, Content: SystemPrompt(topic)}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *Service) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Exists(ctx, sessionID)
}

// Reply runs one interview turn and persists it.
// An empty session gets the persona for topic first, so N turns leave 1+2N messages.
// Sessions other than the shared one must already exist; a deleted session is never recreated.
func (s *Service) Reply(ctx context.Context, sessionID, topic, userText string) (string, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	if err := s.ensureSession(ctx, sessionID); err != nil {
		return "", err
	}

	start := time.Now()

	stored, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	var pending []history.Message
	if len(stored) == 0 {
		pending = append(pending, history.Message{Role: history.RoleSystem, Content: SystemPrompt(topic)})
	}
	user := history.Message{Role: history.RoleUser, Content: userText}
	pending = append(pending, user)

	conversation := make([]history.Message, 0, len(stored)+len(pending))
	conversation = append(conversation, stored...)
	conversation = append(conversation, pending...)

	prompt := s.trim(conversation)

	reply, err := s.chat.GetCompletion(ctx, toOpenAI(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	pending = append(pending, history.Message{Role: history.RoleAssistant, Content: reply})
	if err := s.store.Append(ctx, sessionID, pending...); err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level: "info",
		Message: fmt.Sprintf("turn saved session=%s prompt_messages=%d took=%.1fs",
			sessionID, len(prompt), time.Since(start).Seconds()),
		Service: "interview",
	})

	return reply, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]history.Message, error) {
	return s.store.Load(ctx, sessionID)
}

// Clear drops every message of the session; the next turn starts with a fresh persona.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	if err := s.ensureSession(ctx, sessionID); err != nil {
		return err
	}
	return s.store.Clear(ctx, sessionID)
}

func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	return s.store.Delete(ctx, sessionID)
}

func (s *Service) ensureSession(ctx context.Context, sessionID string) error {
	if sessionID == history.DefaultSession {
		return nil
	}

	exists, err := s.store.Exists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("look up session: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", history.ErrSessionNotFound, sessionID)
	}
	return nil
}

// lock serializes work on one session. The entry leaves the map once nobody holds or waits on it.
func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// trim keeps a leading system message and the newest messages that fit the budget.
// The last message is always kept.
func (s *Service) trim(msgs []history.Message) []history.Message {
	if s.tokenizer == nil || s.maxTokens <= 0 || len(msgs) == 0 {
		return msgs
	}

	var head []history.Message
	body := msgs
	if msgs[0].Role == history.RoleSystem {
		head, body = msgs[:1], msgs[1:]
	}

	used := 0
	for _, m := range head {
		used += s.tokenizer.Count(m.Content) + tokensPerMessage
	}

	keep := len(body)
	for i := len(body) - 1; i >= 0; i-- {
		cost := s.tokenizer.Count(body[i].Content) + tokensPerMessage
		if used+cost > s.maxTokens && i < len(body)-1 {
			break
		}
		used += cost
		keep = i
	}

	if keep == 0 {
		return msgs
	}

	out := make([]history.Message, 0, len(head)+len(body)-keep)
	out = append(out, head...)
	return append(out, body[keep:]...)
}

func toOpenAI(msgs []history.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
