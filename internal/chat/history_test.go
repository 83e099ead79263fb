package chat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *HistoryStore {
	t.Helper()
	return NewHistoryStore(filepath.Join(t.TempDir(), "chat_history.json"), nil)
}

func TestHistoryRoundTrip(t *testing.T) {
	store := testStore(t)

	saved := []Message{
		NewMessage(RoleUser, "hello"),
		NewMessage(RoleAssistant, "ahoy, mate"),
		NewMessage(RoleUser, "who are you?"),
	}
	store.Save(saved)

	loaded := store.Load()
	require.Len(t, loaded, len(saved))
	for i := range saved {
		assert.Equal(t, saved[i].Role, loaded[i].Role)
		assert.Equal(t, saved[i].Content, loaded[i].Content)
		assert.True(t, saved[i].Timestamp.Equal(loaded[i].Timestamp),
			"timestamp mismatch at index %d", i)
	}
}

func TestHistoryLoadMissingFile(t *testing.T) {
	store := testStore(t)
	assert.Empty(t, store.Load())
}

func TestHistoryLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewHistoryStore(path, nil)
	assert.Empty(t, store.Load())
}

func TestHistoryReset(t *testing.T) {
	store := testStore(t)
	store.Save([]Message{NewMessage(RoleUser, "hi")})
	require.Len(t, store.Load(), 1)

	store.Reset()
	assert.Empty(t, store.Load())

	// The file itself still exists and holds an empty array
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestHistorySaveOverwrites(t *testing.T) {
	store := testStore(t)
	store.Save([]Message{
		NewMessage(RoleUser, "one"),
		NewMessage(RoleAssistant, "two"),
	})
	store.Save([]Message{NewMessage(RoleUser, "three")})

	loaded := store.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "three", loaded[0].Content)
}

func TestHistorySaveUnwritablePathIsAbsorbed(t *testing.T) {
	store := NewHistoryStore(filepath.Join(t.TempDir(), "missing", "deep", "history.json"), nil)

	// Must not panic or error out; the failure is logged and swallowed
	store.Save([]Message{NewMessage(RoleUser, "hi")})
	assert.Empty(t, store.Load())
}

func TestMessageTimestampSetAtCreation(t *testing.T) {
	before := time.Now()
	msg := NewMessage(RoleUser, "hi")
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(time.Now()))
}
