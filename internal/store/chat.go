package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

const (
	OpSendMessage      = "sendMessage"
	OpFetchSuggestions = "fetchSuggestions"
	OpAnalyzeBehavior  = "analyzeBehavior"
)

const DefaultGreeting = "Hello! I'm your AI assistant. How can I help you today?"

type ChatAPI interface {
	SendChatMessage(ctx context.Context, message string) (backend.ChatReply, error)
	ChatSuggestions(ctx context.Context) ([]string, error)
	AnalyzeBehavior(ctx context.Context) (backend.BehaviorAnalysis, error)
}

type ChatState struct {
	Messages    []domain.ChatMessage        `json:"messages"`
	Open        bool                        `json:"is_open"`
	Suggestions []string                    `json:"suggestions"`
	Analysis    *backend.BehaviorAnalysis   `json:"analysis"`
	Ops         map[string]lifecycle.Record `json:"ops"`
}

type ChatStore struct {
	base
	api      ChatAPI
	greeting string

	messages    []domain.ChatMessage
	open        bool
	suggestions []string
	analysis    *backend.BehaviorAnalysis
}

// NewChatStore seeds the log with greeting, or DefaultGreeting when empty.
func NewChatStore(api ChatAPI, greeting string, d Deps) *ChatStore {
	d = d.withDefaults()
	if strings.TrimSpace(greeting) == "" {
		greeting = DefaultGreeting
	}
	s := &ChatStore{api: api, greeting: greeting}
	s.init(ContainerChat, d)
	s.messages = []domain.ChatMessage{s.greet()}
	return s
}

func (s *ChatStore) greet() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        domain.ID(uuid.NewString()),
		Sender:    domain.SenderAssistant,
		Content:   s.greeting,
		Timestamp: s.now().UTC(),
		Type:      domain.ChatText,
	}
}

func (s *ChatStore) Snapshot() ChatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]domain.ChatMessage, len(s.messages))
	for i, m := range s.messages {
		msgs[i] = m.Clone()
	}
	return ChatState{
		Messages:    msgs,
		Open:        s.open,
		Suggestions: append([]string(nil), s.suggestions...),
		Analysis:    s.analysis,
		Ops:         s.Ops(),
	}
}

// Toggle flips the panel and returns the new state.
func (s *ChatStore) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

func (s *ChatStore) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
}

// Send appends the user's message as pending, then resolves it. The reply is
// appended on success; on failure the message stays in the log marked failed.
// Replies to overlapping sends are all kept, in completion order.
func (s *ChatStore) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, s.reject(OpSendMessage, apierr.Validation("message is empty"))
	}

	start := time.Now()
	ctx, span := observability.StartDispatch(ctx, s.name, OpSendMessage)
	tk := s.tracker.Begin(OpSendMessage)

	msg := domain.ChatMessage{
		ID:        domain.ID(uuid.NewString()),
		Sender:    domain.SenderUser,
		Content:   text,
		Timestamp: s.now().UTC(),
		Type:      domain.ChatText,
		Delivery:  domain.DeliveryPending,
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	reply, err := s.api.SendChatMessage(ctx, text)

	var out domain.ChatMessage
	s.mu.Lock()
	if err != nil {
		s.setDelivery(msg.ID, domain.DeliveryFailed)
	} else {
		s.setDelivery(msg.ID, domain.DeliverySent)
		out = s.replyMessage(reply)
		s.messages = append(s.messages, out)
	}
	s.mu.Unlock()

	status := s.settle(tk, err, nil)
	s.metrics.ObserveDispatch(s.name, OpSendMessage, status, time.Since(start))
	observability.EndDispatch(span, err)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return out.Clone(), nil
}

// setDelivery marks message id. Caller holds mu.
func (s *ChatStore) setDelivery(id domain.ID, d domain.Delivery) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Delivery = d
			return
		}
	}
}

func (s *ChatStore) replyMessage(r backend.ChatReply) domain.ChatMessage {
	id := r.ID
	if id.Empty() {
		id = domain.ID(uuid.NewString())
	}
	ts := s.now().UTC()
	if r.Timestamp != nil {
		ts = *r.Timestamp
	}
	typ := r.Type
	if typ == "" {
		typ = domain.ChatText
	}
	return domain.ChatMessage{
		ID:        id,
		Sender:    domain.SenderAssistant,
		Content:   r.Content,
		Timestamp: ts,
		Type:      typ,
		Metadata:  r.Metadata,
	}
}

func (s *ChatStore) FetchSuggestions(ctx context.Context) ([]string, error) {
	return dispatch(ctx, &s.base, OpFetchSuggestions, s.api.ChatSuggestions, func(v []string) {
		s.suggestions = append([]string(nil), v...)
	})
}

// AnalyzeBehavior asks the assistant for the learner's interests and scores.
func (s *ChatStore) AnalyzeBehavior(ctx context.Context) (backend.BehaviorAnalysis, error) {
	return dispatch(ctx, &s.base, OpAnalyzeBehavior, s.api.AnalyzeBehavior, func(v backend.BehaviorAnalysis) {
		s.analysis = &v
	})
}

// ResetAnalysis forgets the last behavior analysis; the log is kept.
func (s *ChatStore) ResetAnalysis() {
	s.mu.Lock()
	s.analysis = nil
	s.mu.Unlock()
	s.tracker.Reset()
}

// Clear drops the conversation back to the greeting.
func (s *ChatStore) Clear() {
	s.mu.Lock()
	s.messages = []domain.ChatMessage{s.greet()}
	s.mu.Unlock()
	s.tracker.Reset()
}
