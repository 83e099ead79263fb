// Package llm defines the model-invocation abstraction used by the chat service.
package llm

import (
	"context"
	"fmt"
)

// Role represents a message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single turn in a conversation as presented to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest contains parameters for a model chat call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// ChatResponse contains the model's reply.
type ChatResponse struct {
	Content string `json:"content"`
}

// Client is the interface for model interactions. Implementations perform
// exactly one synchronous call per Chat invocation and never retry.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// KindTimeout means the call exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindProvider means the provider rejected or failed the call.
	KindProvider ErrorKind = "provider"
	// KindParse means the provider returned a response we could not interpret.
	KindParse ErrorKind = "parse"
)

// Error is the typed failure returned by every Client implementation.
// Callers switch on Kind instead of probing the raw error.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a deadline expiry.
func (e *Error) IsTimeout() bool {
	return e.Kind == KindTimeout
}

// wrapErr converts a transport-level error into a typed Error,
// mapping context expiry to the timeout kind.
func wrapErr(ctx context.Context, detail string, err error) *Error {
	if ctx.Err() == context.DeadlineExceeded {
		return &Error{Kind: KindTimeout, Detail: detail, Err: err}
	}
	return &Error{Kind: KindProvider, Detail: detail, Err: err}
}
