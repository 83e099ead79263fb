package chat

import (
	"encoding/json"
	"os"
	"path/filepath"

	"chatbot-api/backend/pkg/logger"
)

// HistoryStore mirrors one session's transcript to a JSON file. Failures are
// absorbed: a damaged or missing file reads as an empty history and a failed
// save never fails the chat request that triggered it. The store does no
// locking of its own; the owning session's lock serializes access.
type HistoryStore struct {
	path string
	log  *logger.Logger
}

// NewHistoryStore creates a store for the given file path.
func NewHistoryStore(path string, log *logger.Logger) *HistoryStore {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &HistoryStore{path: path, log: log}
}

// Path returns the transcript file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Load reads the transcript file. An absent file yields an empty transcript;
// a read or parse failure is logged and also yields an empty transcript.
func (s *HistoryStore) Load() []Message {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info("No existing history file found", "path", s.path)
			return nil
		}
		s.log.LogError(err, "Error loading history", "path", s.path)
		return nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		s.log.LogError(err, "Error parsing history file, treating as empty", "path", s.path)
		return nil
	}

	s.log.Debug("Loaded messages from history file", "count", len(messages), "path", s.path)
	return messages
}

// Save serializes the full transcript to the file, replacing any previous
// contents. Write failures are logged and swallowed.
func (s *HistoryStore) Save(messages []Message) {
	if messages == nil {
		messages = []Message{}
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		s.log.LogError(err, "Error serializing history", "path", s.path)
		return
	}

	// Write-then-rename keeps the file whole if the process dies mid-save
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.LogError(err, "Error saving history", "path", s.path)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.LogError(err, "Error replacing history file", "path", s.path)
		_ = os.Remove(tmp)
		return
	}

	s.log.Debug("Saved messages to history file", "count", len(messages), "path", filepath.Base(s.path))
}

// Reset truncates the persisted transcript to empty.
func (s *HistoryStore) Reset() {
	s.Save(nil)
}
