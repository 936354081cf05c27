package domain

import (
	"strings"
	"time"
)

type ChatSender string

const (
	SenderUser      ChatSender = "user"
	SenderAssistant ChatSender = "assistant"
)

type ChatMessageType string

const (
	ChatText       ChatMessageType = "text"
	ChatSuggestion ChatMessageType = "suggestion"
	ChatError      ChatMessageType = "error"
)

func ParseChatMessageType(raw string) ChatMessageType {
	switch ChatMessageType(strings.ToLower(strings.TrimSpace(raw))) {
	case ChatSuggestion:
		return ChatSuggestion
	case ChatError:
		return ChatError
	default:
		return ChatText
	}
}

// Delivery tracks an optimistically appended user message.
type Delivery string

const (
	DeliveryPending Delivery = "pending"
	DeliverySent    Delivery = "sent"
	DeliveryFailed  Delivery = "failed"
)

type ChatMetadata struct {
	Solution   string   `json:"solution,omitempty"`
	CourseID   string   `json:"course_id,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type ChatMessage struct {
	ID        ID              `json:"id"`
	Sender    ChatSender      `json:"sender"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Type      ChatMessageType `json:"type"`
	Metadata  *ChatMetadata   `json:"metadata,omitempty"`
	Delivery  Delivery        `json:"delivery,omitempty"`
}

func (m ChatMessage) Clone() ChatMessage {
	if m.Metadata != nil {
		md := *m.Metadata
		m.Metadata = &md
	}
	return m
}
