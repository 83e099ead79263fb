package chat

import (
	"sync"
	"time"

	"chatbot-api/backend/internal/llm"
	"chatbot-api/backend/pkg/logger"
)

// Session is one independent conversation thread. The transcript is the
// append-only record of turns; memory is the same sequence in the shape
// presented to the model. Both are updated only through append, so they
// cannot diverge. All mutation happens under mu, held by the orchestrator
// for the whole user-turn round trip.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	transcript []Message
	memory     []llm.Message

	// store is non-nil only for the durable session whose transcript is
	// mirrored to disk
	store *HistoryStore
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Durable reports whether this session's transcript is mirrored to disk.
func (s *Session) Durable() bool {
	return s.store != nil
}

// append records one turn in both the transcript and the model memory.
// Callers must hold mu.
func (s *Session) append(msg Message) {
	s.transcript = append(s.transcript, msg)
	s.memory = append(s.memory, msg.toModel())
}

// Messages returns a copy of the session transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// MessageCount returns the number of messages in the transcript.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript)
}

// lastActivity is the timestamp of the most recent message, or the
// creation time for an empty transcript. Callers must hold mu.
func (s *Session) lastActivity() time.Time {
	if len(s.transcript) == 0 {
		return s.createdAt
	}
	return s.transcript[len(s.transcript)-1].Timestamp
}

// SessionInfo is a read-only snapshot of one session's state.
type SessionInfo struct {
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Registry is the process-wide session table. It owns every Session and is
// safe for concurrent use; mutations on a single session serialize behind
// that session's lock while unrelated sessions proceed in parallel.
//
// Sessions live for the process lifetime. There is no eviction; unbounded
// growth with many distinct ids is a known gap awaiting retention semantics.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store     *HistoryStore
	defaultID string
	log       *logger.Logger
}

// NewRegistry creates a session registry. Sessions whose id equals defaultID
// are durable: seeded from the history store on first resolve and mirrored
// back to it after every successful exchange.
func NewRegistry(store *HistoryStore, defaultID string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		store:     store,
		defaultID: defaultID,
		log:       log,
	}
}

// Resolve returns the session for the given id, creating it on first
// reference. It never fails: the worst case is a fresh empty session.
func (r *Registry) Resolve(id string) *Session {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock
	if sess, ok := r.sessions[id]; ok {
		return sess
	}

	r.log.Info("Creating new session", "session_id", id)

	sess = &Session{
		id:        id,
		createdAt: time.Now(),
	}

	if id == r.defaultID && r.store != nil {
		sess.store = r.store
		for _, msg := range r.store.Load() {
			sess.append(msg)
		}
		r.log.Debug("Session seeded from history file",
			"session_id", id,
			"messages", len(sess.transcript),
		)
	}

	r.sessions[id] = sess
	return sess
}

// Clear resets a session's transcript and memory to empty, keeping the
// entry in the table. The durable session's file is reset too. It returns
// false, without creating the session, if the id was never resolved.
func (r *Registry) Clear(id string) bool {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.transcript = nil
	sess.memory = nil
	if sess.store != nil {
		sess.store.Reset()
	}

	r.log.Info("Session cleared", "session_id", id)
	return true
}

// List returns a read-only snapshot of every session.
func (r *Registry) List() map[string]SessionInfo {
	r.mu.RLock()
	sessions := make(map[string]*Session, len(r.sessions))
	for id, sess := range r.sessions {
		sessions[id] = sess
	}
	r.mu.RUnlock()

	// Session locks are taken only after the table lock is released: a
	// session mid round-trip holds its lock for the whole provider call,
	// and waiting on it under the table lock would stall Resolve of
	// unrelated sessions behind that call.
	infos := make(map[string]SessionInfo, len(sessions))
	for id, sess := range sessions {
		sess.mu.Lock()
		infos[id] = SessionInfo{
			MessageCount: len(sess.transcript),
			CreatedAt:    sess.createdAt,
			LastActivity: sess.lastActivity(),
		}
		sess.mu.Unlock()
	}
	return infos
}

// Count returns the number of sessions in the table.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
