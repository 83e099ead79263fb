package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, responses ...llm.MockResponse) (*Service, *Registry, *HistoryStore, *llm.MockClient) {
	t.Helper()
	store := testStore(t)
	reg := NewRegistry(store, testDefaultID, nil)
	mock := llm.NewMockClient(responses...)
	svc := NewService(reg, mock, ServiceConfig{
		Model:        "claude-sonnet-4-20250514",
		SystemPrompt: "You are a test persona.",
		Temperature:  0.7,
		MaxTokens:    256,
		Timeout:      5 * time.Second,
	}, nil)
	return svc, reg, store, mock
}

func TestConverseAppendsBothTurnsInOrder(t *testing.T) {
	svc, reg, _, _ := testService(t,
		llm.MockResponse{Content: "first reply"},
		llm.MockResponse{Content: "second reply"},
	)

	const n = 2
	for i := 0; i < n; i++ {
		reply, err := svc.Converse(context.Background(), "s1", fmt.Sprintf("question %d", i+1))
		require.NoError(t, err)
		assert.Equal(t, 2*(i+1), reply.MessageCount)
	}

	msgs := reg.Resolve("s1").Messages()
	require.Len(t, msgs, 2*n)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "question 1", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "first reply", msgs[1].Content)
	assert.Equal(t, "question 2", msgs[2].Content)
	assert.Equal(t, "second reply", msgs[3].Content)
}

func TestConverseSecondCallCarriesPriorTurns(t *testing.T) {
	svc, _, _, mock := testService(t,
		llm.MockResponse{Content: "reply one"},
		llm.MockResponse{Content: "reply two"},
	)

	_, err := svc.Converse(context.Background(), "s1", "hello")
	require.NoError(t, err)
	_, err = svc.Converse(context.Background(), "s1", "again")
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 2)

	// First call: just the new user turn
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, "hello", calls[0].Messages[0].Content)

	// Second call: both prior turns plus the new one
	require.Len(t, calls[1].Messages, 3)
	assert.Equal(t, llm.RoleUser, calls[1].Messages[0].Role)
	assert.Equal(t, "hello", calls[1].Messages[0].Content)
	assert.Equal(t, llm.RoleAssistant, calls[1].Messages[1].Role)
	assert.Equal(t, "reply one", calls[1].Messages[1].Content)
	assert.Equal(t, "again", calls[1].Messages[2].Content)

	// Persona preamble rides on every call
	assert.Equal(t, "You are a test persona.", calls[1].System)
}

func TestConverseEmptyMessageRejectedBeforeAnyWork(t *testing.T) {
	svc, reg, _, mock := testService(t, llm.MockResponse{Content: "unused"})

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := svc.Converse(context.Background(), "s1", text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Equal(t, 0, mock.CallCount(), "provider must not be called")
	assert.Equal(t, 0, reg.Count(), "no session may be created")
}

func TestConverseProviderFailureLeavesTranscriptUntouched(t *testing.T) {
	svc, reg, _, _ := testService(t,
		llm.MockResponse{Error: &llm.Error{Kind: llm.KindProvider, Detail: "upstream exploded"}},
	)

	_, err := svc.Converse(context.Background(), "s1", "hello")
	require.Error(t, err)

	var provErr *llm.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, llm.KindProvider, provErr.Kind)

	// Neither the user nor an assistant message was recorded
	assert.Equal(t, 0, reg.Resolve("s1").MessageCount())
}

func TestConverseTimeoutSurfacesAsTimeoutKind(t *testing.T) {
	svc, reg, _, _ := testService(t,
		llm.MockResponse{Error: context.DeadlineExceeded},
	)

	_, err := svc.Converse(context.Background(), "s1", "hello")
	require.Error(t, err)

	var provErr *llm.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, llm.KindTimeout, provErr.Kind)
	assert.Equal(t, 0, reg.Resolve("s1").MessageCount())
}

func TestOnlyDefaultSessionIsPersisted(t *testing.T) {
	svc, _, store, _ := testService(t, llm.MockResponse{Content: "reply"})

	_, err := svc.Converse(context.Background(), "ephemeral", "hello")
	require.NoError(t, err)
	assert.Empty(t, store.Load(), "non-default session must not touch the history file")

	_, err = svc.Converse(context.Background(), testDefaultID, "hello")
	require.NoError(t, err)
	assert.Len(t, store.Load(), 2)
}

func TestConversePersistsFullDefaultTranscript(t *testing.T) {
	svc, _, store, _ := testService(t,
		llm.MockResponse{Content: "one"},
		llm.MockResponse{Content: "two"},
	)

	_, err := svc.Converse(context.Background(), testDefaultID, "first")
	require.NoError(t, err)
	_, err = svc.Converse(context.Background(), testDefaultID, "second")
	require.NoError(t, err)

	persisted := store.Load()
	require.Len(t, persisted, 4)
	assert.Equal(t, "first", persisted[0].Content)
	assert.Equal(t, "one", persisted[1].Content)
	assert.Equal(t, "second", persisted[2].Content)
	assert.Equal(t, "two", persisted[3].Content)
}

// captureClient records the context the service hands to the provider.
type captureClient struct {
	mu  sync.Mutex
	ctx context.Context
}

func (c *captureClient) Chat(ctx context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	return &llm.ChatResponse{Content: "reply"}, nil
}

func TestConverseSurvivesCallerDisconnect(t *testing.T) {
	reg := NewRegistry(testStore(t), testDefaultID, nil)
	client := &captureClient{}
	svc := NewService(reg, client, ServiceConfig{
		Model:   "claude-sonnet-4-20250514",
		Timeout: 5 * time.Second,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := svc.Converse(ctx, "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, reply.MessageCount)
	assert.Equal(t, 2, reg.Resolve("s1").MessageCount())

	// The provider call runs on its own deadline, not the caller's context
	require.NotNil(t, client.ctx)
	assert.NoError(t, client.ctx.Err())
	_, hasDeadline := client.ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestConverseProviderFailureLogIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "error", JSON: true, Output: &buf})

	reg := NewRegistry(testStore(t), testDefaultID, nil)
	mock := llm.NewMockClient(llm.MockResponse{
		Error: &llm.Error{Kind: llm.KindProvider, Detail: "upstream exploded"},
	})
	svc := NewService(reg, mock, ServiceConfig{
		Model:   "claude-sonnet-4-20250514",
		Timeout: time.Second,
	}, log)

	_, err := svc.Converse(context.Background(), "s1", "hello")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Model call failed")
	assert.Contains(t, out, `"stack"`)
	assert.Contains(t, out, "Converse", "stack trace should point at the failing call site")
}

func TestConverseConcurrentSameSessionStaysPairwiseOrdered(t *testing.T) {
	svc, reg, _, _ := testService(t, llm.MockResponse{Content: "reply"})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Converse(context.Background(), "shared", fmt.Sprintf("msg %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs := reg.Resolve("shared").Messages()
	require.Len(t, msgs, 2*n)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, RoleUser, msgs[i].Role, "index %d", i)
		assert.Equal(t, RoleAssistant, msgs[i+1].Role, "index %d", i+1)
	}
}

func TestConverseConcurrentDistinctSessionsProceed(t *testing.T) {
	svc, reg, _, _ := testService(t, llm.MockResponse{Content: "reply"})

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Converse(context.Background(), id, "hello")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 4, reg.Count())
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, 2, reg.Resolve(id).MessageCount())
	}
}
