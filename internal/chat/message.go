// Package chat implements the conversation core: the session table, the
// persisted history store, and the orchestration around the model call.
package chat

import (
	"time"

	"chatbot-api/backend/internal/llm"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Messages are immutable once
// created and ordering is strictly append-order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// toModel converts a transcript message into its model-call representation.
func (m Message) toModel() llm.Message {
	return llm.Message{
		Role:    llm.Role(m.Role),
		Content: m.Content,
	}
}
