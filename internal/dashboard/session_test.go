package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/treecover.report/internal/timeutil"
)

func TestSessionStore_ForRequestSetsCookie(t *testing.T) {
	st := NewSessionStore(time.Minute, 2010)

	rec := httptest.NewRecorder()
	s := st.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 2010, s.Year())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, s.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// Same cookie, same session, no new cookie.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	assert.Same(t, s, st.ForRequest(rec2, req))
	assert.Empty(t, rec2.Result().Cookies())
}

func TestSessionStore_UnknownCookie(t *testing.T) {
	st := NewSessionStore(time.Minute, 2010)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})

	rec := httptest.NewRecorder()
	s := st.ForRequest(rec, req)
	assert.NotEqual(t, "forged", s.ID)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestSessionStore_Expiry(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	st := NewSessionStoreWithClock(time.Minute, 2010, clock)

	s := st.New()
	assert.Equal(t, 1, st.Len())

	clock.Advance(30 * time.Second)
	_, ok := st.Get(s.ID)
	assert.True(t, ok, "access refreshes the session")

	clock.Advance(59 * time.Second)
	assert.Equal(t, 1, st.Len())

	clock.Advance(2 * time.Second)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestSessionStore_SweepAtTTL(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	st := NewSessionStoreWithClock(time.Minute, 2010, clock)
	st.New()

	clock.Advance(time.Minute)
	st.mu.Lock()
	assert.Equal(t, 0, st.sweepLocked(), "idle for exactly the TTL is kept")
	st.mu.Unlock()

	clock.Advance(time.Nanosecond)
	st.mu.Lock()
	assert.Equal(t, 1, st.sweepLocked())
	st.mu.Unlock()
}

func TestSessionStore_RunSweeper(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	st := NewSessionStoreWithClock(time.Minute, 2010, clock)
	st.New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.RunSweeper(ctx, 10*time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool { return clock.Tickers() == 1 }, time.Second, time.Millisecond)

	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.sessions) == 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestSession_IsolationAndApply(t *testing.T) {
	quietLogs(t)
	u := NewUpdater(scenarioDataset(t), 1e6)
	st := NewSessionStore(time.Minute, 2010)

	a, b := st.New(), st.New()
	require.NotEqual(t, a.ID, b.ID)

	got := a.Apply(2011, u.Update)
	assert.Equal(t, 2011, got.Year)
	assert.Equal(t, 2011, a.Year())
	assert.Equal(t, 2010, b.Year(), "one viewer's selection never changes another's")
}

func TestSession_ApplySerialised(t *testing.T) {
	st := NewSessionStore(time.Minute, 2010)
	s := st.New()

	var mu sync.Mutex
	active, maxActive := 0, 0
	update := func(year int) *Artifacts {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return &Artifacts{Year: year}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Apply(2010+i, update)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}
