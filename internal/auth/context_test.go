package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/pkg/messaging"
)

func newTestContext(t *testing.T, store Store, broker messaging.Broker) *Context {
	t.Helper()
	issuer := NewTokenIssuer("test-secret", time.Hour)
	c := NewContext(store, issuer, WithBroker(broker))
	return c
}

func TestResolveIsLoadingUntilStarted(t *testing.T) {
	c := newTestContext(t, NewMemoryStore(), nil)

	st := c.Resolve(context.Background(), "anything")
	assert.True(t, st.Loading)
	assert.Nil(t, st.User)

	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	st = c.Resolve(context.Background(), "")
	assert.False(t, st.Loading)
	assert.Nil(t, st.User)
}

func TestStartRestoresPersistedSessions(t *testing.T) {
	store := NewMemoryStore()
	issuer := NewTokenIssuer("test-secret", time.Hour)
	session := issuer.NewSession(uuid.New(), "student@academy.test")
	require.NoError(t, store.Save(context.Background(), session))
	token, err := issuer.Issue(session)
	require.NoError(t, err)

	c := NewContext(store, issuer)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	st := c.Resolve(context.Background(), token)
	require.NotNil(t, st.User)
	assert.Equal(t, session.UserID, st.User.UserID)
}

func TestSignOutInvalidatesTokenAndNotifies(t *testing.T) {
	c := newTestContext(t, NewMemoryStore(), nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	var mu sync.Mutex
	var seen []EventType
	c.OnChange(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Type)
		mu.Unlock()
	})

	session := c.tokens.NewSession(uuid.New(), "admin@clinic.test")
	token, err := c.SignIn(context.Background(), session)
	require.NoError(t, err)
	require.NotNil(t, c.Resolve(context.Background(), token).User)

	require.NoError(t, c.SignOut(context.Background(), session.ID))
	assert.Nil(t, c.Resolve(context.Background(), token).User)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, seen)
}

func TestResolveRejectsForeignOrTamperedTokens(t *testing.T) {
	c := newTestContext(t, NewMemoryStore(), nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	session := c.tokens.NewSession(uuid.New(), "a@b.test")
	_, err := c.SignIn(context.Background(), session)
	require.NoError(t, err)

	other := NewTokenIssuer("another-secret", time.Hour)
	forged, err := other.Issue(session)
	require.NoError(t, err)

	assert.Nil(t, c.Resolve(context.Background(), forged).User)
	assert.Nil(t, c.Resolve(context.Background(), "not-a-jwt").User)
}

func TestSessionEventsPropagateBetweenInstances(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()
	store := NewMemoryStore()

	a := newTestContext(t, store, broker)
	b := newTestContext(t, store, broker)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	session := a.tokens.NewSession(uuid.New(), "student@academy.test")
	token, err := a.SignIn(context.Background(), session)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return b.Resolve(context.Background(), token).User != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.SignOut(context.Background(), session.ID))
	require.Eventually(t, func() bool {
		return b.Resolve(context.Background(), token).User == nil
	}, time.Second, 5*time.Millisecond)
}

func withClock(c *Context, now *time.Time) {
	c.now = func() time.Time { return *now }
	c.tokens.now = func() time.Time { return *now }
}

func registered(c *Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func TestRefreshReplacesSession(t *testing.T) {
	store := NewMemoryStore()
	c := newTestContext(t, store, nil)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := base
	withClock(c, &now)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	session := c.tokens.NewSession(uuid.New(), "a@b.test")
	oldToken, err := c.SignIn(context.Background(), session)
	require.NoError(t, err)

	now = base.Add(50 * time.Minute)
	token, refreshed, err := c.Refresh(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), refreshed.ExpiresAt)
	assert.NotEqual(t, session.ID, refreshed.ID)
	assert.Nil(t, c.Resolve(context.Background(), oldToken).User)
	assert.Equal(t, 1, registered(c))

	persisted, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, refreshed.ID, persisted[0].ID)

	now = base.Add(90 * time.Minute)
	st := c.Resolve(context.Background(), token)
	require.NotNil(t, st.User)
	assert.Equal(t, refreshed.ID, st.User.ID)
	assert.Equal(t, session.UserID, st.User.UserID)
}

func TestRefreshPropagatesReplacement(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()
	store := NewMemoryStore()

	a := newTestContext(t, store, broker)
	b := newTestContext(t, store, broker)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close()
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	session := a.tokens.NewSession(uuid.New(), "student@academy.test")
	oldToken, err := a.SignIn(context.Background(), session)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return b.Resolve(context.Background(), oldToken).User != nil
	}, time.Second, 5*time.Millisecond)

	token, _, err := a.Refresh(context.Background(), session.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return b.Resolve(context.Background(), token).User != nil &&
			b.Resolve(context.Background(), oldToken).User == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, registered(b))
}

func TestExpiredTokenEndsSession(t *testing.T) {
	store := NewMemoryStore()
	c := newTestContext(t, store, nil)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := base
	withClock(c, &now)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	var mu sync.Mutex
	var seen []EventType
	c.OnChange(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Type)
		mu.Unlock()
	})

	session := c.tokens.NewSession(uuid.New(), "a@b.test")
	token, err := c.SignIn(context.Background(), session)
	require.NoError(t, err)

	now = base.Add(2 * time.Hour)
	assert.Nil(t, c.Resolve(context.Background(), token).User)
	assert.Equal(t, 0, registered(c))

	persisted, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventSignedIn, EventExpired}, seen)
}

func TestSweepEndsUnusedExpiredSessions(t *testing.T) {
	store := NewMemoryStore()
	c := newTestContext(t, store, nil)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := base
	withClock(c, &now)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	_, err := c.SignIn(context.Background(), c.tokens.NewSession(uuid.New(), "early@b.test"))
	require.NoError(t, err)
	now = base.Add(30 * time.Minute)
	late := c.tokens.NewSession(uuid.New(), "late@b.test")
	_, err = c.SignIn(context.Background(), late)
	require.NoError(t, err)

	now = base.Add(61 * time.Minute)
	assert.Equal(t, 1, c.Sweep(context.Background()))
	assert.Equal(t, 1, registered(c))

	persisted, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, late.ID, persisted[0].ID)
}

func TestStartDropsExpiredPersistedSessions(t *testing.T) {
	store := NewMemoryStore()
	stale := &Session{ID: uuid.NewString(), UserID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, store.Save(context.Background(), stale))

	c := newTestContext(t, store, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.Equal(t, 0, registered(c))
	persisted, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
}
