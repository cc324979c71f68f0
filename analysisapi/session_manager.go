package analysisapi

import (
	stdcontext "context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/eclipse-che4z/hlasm-analyzer-go/engine"
	"github.com/eclipse-che4z/hlasm-analyzer-go/library"
	"github.com/eclipse-che4z/hlasm-analyzer-go/macrodbg"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// ErrSessionNotFound is returned when a session ID has no matching
// live session.
var ErrSessionNotFound = errors.New("session not found")

// Session is one live analysis-plus-debugger session: an
// engine.Session paused or running, with a macrodbg.Debugger
// installed on its processing.Manager so a client can breakpoint, step,
// and inspect state between WebSocket/HTTP calls. **G** teacher's
// api.Session (api/session_manager.go), the same "one VM instance plus
// its creation time, held behind a lookup map" shape, with the VM
// replaced by an engine.Session and the debugger service replaced by
// macrodbg.Debugger directly, since this engine's debugger already has
// no transport of its own to wrap.
type Session struct {
	ID        string
	CreatedAt time.Time

	Engine   *engine.Session
	Debugger *macrodbg.Debugger

	mu sync.Mutex
}

// Continue runs the session to its next suspension point (completion,
// budget, cancellation, or breakpoint/watchpoint). Continue and the Step
// methods serialize every run/step call on one session through this
// mutex; inspection handlers do not take it. macrodbg.Debugger assumes the single-threaded
// Resume contract (§5) and two concurrent HTTP requests for the same
// session would otherwise violate it.
func (s *Session) Continue(ctx stdcontext.Context) (processing.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Debugger.Continue(ctx)
}

// StepInto runs exactly one statement for this session.
func (s *Session) StepInto(ctx stdcontext.Context) (processing.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Debugger.StepIntoOnce(ctx)
}

// StepOver runs until control returns to the current frame depth or
// shallower for this session.
func (s *Session) StepOver(ctx stdcontext.Context) (processing.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Debugger.StepOver(ctx)
}

// StepOut runs until the innermost macro call returns for this session.
func (s *Session) StepOut(ctx stdcontext.Context) (processing.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Debugger.StepOut(ctx)
}

// SessionManager tracks every live session, keyed by a random ID.
// **G** teacher's api.SessionManager: sync.RWMutex-guarded map plus
// crypto/rand-derived hex IDs, unchanged in shape.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), broadcaster: broadcaster}
}

// CreateSession parses and prepares (but does not run) a new analysis
// session from req, installing a macrodbg.Debugger on it.
func (sm *SessionManager) CreateSession(req SessionCreateRequest) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	uri := source.URI(req.URI)
	if uri == "" {
		uri = source.URI("session://" + id + ".hlasm")
	}

	var dirs []*library.Directory
	for _, root := range req.LibraryDirs {
		dirs = append(dirs, library.NewDirectory(library.DiskLoader{}, source.URI(root), library.Options{}, uri))
	}

	eng := engine.Prepare(uri, req.Source, engine.Options{LibraryDirs: dirs})
	dbg := macrodbg.NewDebugger(eng.Manager, eng.Ctx)

	session := &Session{ID: id, CreatedAt: time.Now(), Engine: eng, Debugger: dbg}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[id] = session
	return session, nil
}

// GetSession looks up a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every live session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
