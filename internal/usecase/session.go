package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"muzmates/internal/domain/entity"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/pkg/logger"
)

type SessionState string

const (
	SessionUnknown   SessionState = "unknown"
	SessionSignedOut SessionState = "signed-out"
	SessionSignedIn  SessionState = "signed-in"
)

// SessionHooks receive session events. They run on subscription goroutines and must not block.
type SessionHooks struct {
	OnState   func(state SessionState, identity *entity.Identity)
	OnProfile func(profile *entity.UserProfile)
}

// Session tracks the identity of one client connection and drives the profile
// projection and the draft lifecycle from it.
type Session struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	drafts    *DraftStore
	projector *ProfileProjector
	hooks     SessionHooks
	release   func()

	mu       sync.Mutex
	state    SessionState
	identity *entity.Identity
	closed   bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() (SessionState, *entity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.identity
}

// Profile returns the projected profile of the signed-in identity, nil otherwise.
func (s *Session) Profile() *entity.UserProfile {
	return s.projector.Current()
}

// Observe feeds the latest identity of the connection; nil means signed out.
// Switching from one identity to another passes through signed-out.
func (s *Session) Observe(identity *entity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if identity == nil {
		s.signOutLocked()
		return
	}

	if s.state == SessionSignedIn {
		if s.identity.ID == identity.ID {
			s.identity = identity
			return
		}
		s.signOutLocked()
	}

	s.state = SessionSignedIn
	s.identity = identity
	s.projector.Watch(s.ctx, identity.ID)
	s.emit(SessionSignedIn, identity)
}

func (s *Session) signOutLocked() {
	if s.state == SessionSignedOut {
		return
	}

	previous := s.identity
	s.state = SessionSignedOut
	s.identity = nil
	s.projector.Stop()
	if previous != nil {
		s.drafts.Reset(previous.ID)
	}
	s.emit(SessionSignedOut, nil)
}

// Close releases the session's subscriptions. The draft is kept: the identity may
// still be signed in on another connection.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.projector.Stop()
	s.cancel()
	s.release()
}

func (s *Session) emit(state SessionState, identity *entity.Identity) {
	if s.hooks.OnState != nil {
		s.hooks.OnState(state, identity)
	}
}

type SessionManager struct {
	drafts *DraftStore
	feeds  ProfileFeedFactory
	opts   []realtime.Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(drafts *DraftStore, feeds ProfileFeedFactory, opts ...realtime.Option) *SessionManager {
	return &SessionManager{
		drafts:   drafts,
		feeds:    feeds,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session in the unknown state. It ends with Close or when ctx is done.
func (m *SessionManager) Open(ctx context.Context, hooks SessionHooks) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:        uuid.New().String(),
		ctx:       ctx,
		cancel:    cancel,
		drafts:    m.drafts,
		projector: NewProfileProjector(m.feeds, hooks.OnProfile, m.opts...),
		hooks:     hooks,
		state:     SessionUnknown,
	}
	s.release = func() { m.remove(s.id) }

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s
}

// SignOut moves every session of uid to signed-out and clears its draft.
func (m *SessionManager) SignOut(uid string) int {
	var targets []*Session
	m.mu.RLock()
	for _, s := range m.sessions {
		if _, identity := s.State(); identity != nil && identity.ID == uid {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.Observe(nil)
	}
	m.drafts.Reset(uid)

	logger.Info("Signed out %d session(s) of %s", len(targets), uid)
	return len(targets)
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
