package chat

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/middleware"
	"chatbot-api/backend/pkg/observability"
)

// ErrEmptyMessage reports a caller-input violation: the message was empty
// after trimming. It is raised before any session or provider work happens.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ServiceConfig carries the per-deployment model parameters.
type ServiceConfig struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// Timeout bounds each provider call; expiry surfaces as a timeout failure
	Timeout time.Duration
}

// Reply is the outcome of one successful exchange.
type Reply struct {
	Text         string
	MessageCount int
}

// Service orchestrates a chat exchange: resolve the session, invoke the
// model with the running memory, record both turns, persist the durable
// session. It owns the only external-call boundary in the process.
type Service struct {
	registry *Registry
	client   llm.Client
	cfg      ServiceConfig
	log      *logger.Logger
}

// NewService creates a conversation orchestrator.
func NewService(registry *Registry, client llm.Client, cfg ServiceConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobal()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Service{
		registry: registry,
		client:   client,
		cfg:      cfg,
		log:      log,
	}
}

// Converse sends the user's message to the model with the session's prior
// turns and returns the reply. Both turns are appended to the transcript
// only after the provider call succeeds, so a failed call leaves the
// session untouched. The session lock is held for the whole round trip;
// conversations on other sessions proceed in parallel.
//
// A failed provider call is reported immediately, never retried; the human
// on the other end can resend.
func (s *Service) Converse(ctx context.Context, sessionID, userText string) (*Reply, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, ErrEmptyMessage
	}

	requestID := middleware.GetRequestID(ctx)
	log := s.log.WithRequestID(requestID).WithSessionID(sessionID)

	sess := s.registry.Resolve(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	userMsg := NewMessage(RoleUser, userText)

	messages := make([]llm.Message, 0, len(sess.memory)+1)
	messages = append(messages, sess.memory...)
	messages = append(messages, userMsg.toModel())

	req := llm.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		System:      s.cfg.SystemPrompt,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: &s.cfg.Temperature,
	}

	// Detached from the request context: once the provider call is in
	// flight the round trip runs to completion even if the caller
	// disconnects, so the transcript and memory still record both turns.
	// Only the service timeout bounds the call.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	log.Debug("Invoking model", "model", s.cfg.Model, "context_messages", len(messages))

	start := time.Now()
	resp, err := s.client.Chat(callCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		provErr := asProviderError(err)
		observability.ProviderErrors.WithLabelValues(string(provErr.Kind)).Inc()
		log.LogError(provErr, "Model call failed",
			"kind", string(provErr.Kind),
			"elapsed_ms", elapsed.Milliseconds(),
			"stack", string(debug.Stack()),
		)
		return nil, provErr
	}

	sess.append(userMsg)
	sess.append(NewMessage(RoleAssistant, resp.Content))

	if sess.store != nil {
		sess.store.Save(sess.transcript)
	}

	log.Info("Exchange completed",
		"elapsed_ms", elapsed.Milliseconds(),
		"message_count", len(sess.transcript),
	)

	return &Reply{
		Text:         resp.Content,
		MessageCount: len(sess.transcript),
	}, nil
}

// asProviderError normalizes any client failure into a typed llm.Error.
func asProviderError(err error) *llm.Error {
	var provErr *llm.Error
	if errors.As(err, &provErr) {
		return provErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Kind: llm.KindTimeout, Detail: "model call timed out", Err: err}
	}
	return &llm.Error{Kind: llm.KindProvider, Detail: "model call failed", Err: err}
}
