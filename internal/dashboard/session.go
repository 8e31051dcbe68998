package dashboard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/treecover.report/internal/monitoring"
	"github.com/banshee-data/treecover.report/internal/timeutil"
)

// SessionCookieName carries the viewer's session id.
const SessionCookieName = "treecover_session"

// Session is one viewer's state: the year they last selected. Updates for a
// session run one at a time.
type Session struct {
	ID string

	mu       sync.Mutex // serialises Apply
	stateMu  sync.Mutex
	year     int
	lastSeen time.Time
}

// Year returns the viewer's selected year.
func (s *Session) Year() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.year
}

// Apply runs update for year while holding the session lock and records
// year as the selection once the artifacts are complete.
func (s *Session) Apply(year int, update func(int) *Artifacts) *Artifacts {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := update(year)

	s.stateMu.Lock()
	s.year = year
	s.stateMu.Unlock()
	return a
}

func (s *Session) touch(now time.Time) {
	s.stateMu.Lock()
	s.lastSeen = now
	s.stateMu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastSeen
}

// SessionStore maps session ids to sessions. Sessions idle for longer than
// the TTL are dropped on the next access or by RunSweeper.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	initialYear int
	clock       timeutil.Clock
}

// NewSessionStore creates a store whose new sessions start at initialYear.
func NewSessionStore(ttl time.Duration, initialYear int) *SessionStore {
	return NewSessionStoreWithClock(ttl, initialYear, timeutil.RealClock{})
}

// NewSessionStoreWithClock is NewSessionStore with an explicit clock.
func NewSessionStoreWithClock(ttl time.Duration, initialYear int, clock timeutil.Clock) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		initialYear: initialYear,
		clock:       clock,
	}
}

func (st *SessionStore) now() time.Time { return st.clock.Now() }

// Get returns the live session with id.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	s, ok := st.sessions[id]
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// New creates and registers a fresh session.
func (st *SessionStore) New() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	s := &Session{ID: uuid.NewString(), year: st.initialYear, lastSeen: st.now()}
	st.sessions[s.ID] = s
	return s
}

// ForRequest returns the session named by the request cookie, creating one
// and setting the cookie when it is missing or expired.
func (st *SessionStore) ForRequest(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if s, ok := st.Get(c.Value); ok {
			return s
		}
	}
	s := st.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	return len(st.sessions)
}

// RunSweeper drops idle sessions every interval until ctx is done, so
// abandoned sessions do not wait for the next request to be collected.
func (st *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := st.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			st.mu.Lock()
			n := st.sweepLocked()
			st.mu.Unlock()
			if n > 0 {
				monitoring.Debugf("swept %d idle sessions", n)
			}
		}
	}
}

func (st *SessionStore) sweepLocked() int {
	if st.ttl <= 0 {
		return 0
	}
	n := 0
	for id, s := range st.sessions {
		if st.clock.Since(s.idleSince()) > st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
