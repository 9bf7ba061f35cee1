package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/pkg/messaging"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

// Listener is told about every session change this instance applies.
type Listener func(Event)

// Context is the process-wide session registry. It is created once in main,
// started, and closed on shutdown; handlers read it through Resolve.
type Context struct {
	id      string
	store   Store
	broker  messaging.Broker
	tokens  *TokenIssuer
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	loading  bool

	lmu       sync.Mutex
	listeners []Listener

	cancel context.CancelFunc
	done   chan struct{}
}

type ContextOption func(*Context)

func WithBroker(b messaging.Broker) ContextOption {
	return func(c *Context) { c.broker = b }
}

func WithMetrics(m *metrics.Metrics) ContextOption {
	return func(c *Context) { c.metrics = m }
}

func NewContext(store Store, tokens *TokenIssuer, opts ...ContextOption) *Context {
	c := &Context{
		id:       uuid.NewString(),
		store:    store,
		tokens:   tokens,
		now:      time.Now,
		sessions: make(map[string]*Session),
		loading:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to session notifications, then restores persisted
// sessions. Requests resolve as loading until the restore finishes.
func (c *Context) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	var events <-chan []byte
	if c.broker != nil {
		var err error
		events, err = c.broker.Subscribe(ctx, messaging.ChannelSessions)
		if err != nil {
			cancel()
			close(c.done)
			return fmt.Errorf("failed to subscribe to session events: %w", err)
		}
	}

	sessions, err := c.store.List(ctx)
	if err != nil {
		cancel()
		close(c.done)
		return fmt.Errorf("failed to restore sessions: %w", err)
	}

	now := c.now()
	for _, s := range sessions {
		if !s.Expired(now) {
			continue
		}
		if err := c.store.Delete(ctx, s.ID); err != nil {
			log.Warn().Err(err).Str("session_id", s.ID).Msg("failed to delete expired session")
		}
	}

	c.mu.Lock()
	for _, s := range sessions {
		if !s.Expired(now) {
			c.sessions[s.ID] = s
		}
	}
	c.loading = false
	count := len(c.sessions)
	c.mu.Unlock()

	c.reportActive(count)
	log.Info().Int("sessions", count).Msg("auth context restored")

	go c.consume(events)
	return nil
}

// Close tears down the subscription and waits for the consumer to exit.
func (c *Context) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Context) consume(events <-chan []byte) {
	defer close(c.done)
	if events == nil {
		return
	}
	for payload := range events {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Warn().Err(err).Msg("dropping malformed session event")
			continue
		}
		if ev.Origin == c.id || ev.Session == nil {
			continue
		}
		c.apply(ev)
	}
}

// OnChange registers l for every applied session event.
func (c *Context) OnChange(l Listener) {
	c.lmu.Lock()
	c.listeners = append(c.listeners, l)
	c.lmu.Unlock()
}

// State reports whether the registry is still restoring. It carries no user.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{Loading: c.loading}
}

// Resolve turns a bearer token into an auth state. A missing, invalid or
// unknown token resolves to a signed-out state, not an error.
func (c *Context) Resolve(ctx context.Context, token string) State {
	c.mu.RLock()
	loading := c.loading
	c.mu.RUnlock()
	if loading {
		return State{Loading: true}
	}
	if token == "" {
		return State{}
	}

	claims, err := c.tokens.Parse(token)
	if errors.Is(err, ErrTokenExpired) {
		c.expire(ctx, claims)
		return State{}
	}
	if err != nil {
		return State{}
	}

	c.mu.RLock()
	s, ok := c.sessions[claims.ID]
	c.mu.RUnlock()
	if !ok || s.UserID.String() != claims.Subject {
		return State{}
	}
	if s.Expired(c.now()) {
		c.expire(ctx, claims)
		return State{}
	}

	cp := *s
	return State{User: &cp}
}

// expire ends the session an expired token names. The token's exp is the
// session expiry truncated to the second.
func (c *Context) expire(ctx context.Context, claims *Claims) {
	c.mu.RLock()
	s, ok := c.sessions[claims.ID]
	c.mu.RUnlock()
	if !ok || s.UserID.String() != claims.Subject {
		return
	}
	if err := c.end(ctx, s, EventExpired); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Msg("failed to drop expired session")
	}
}

// Sweep ends every expired session, including ones whose token is never
// presented again, and returns how many it ended.
func (c *Context) Sweep(ctx context.Context) int {
	now := c.now()
	c.mu.RLock()
	var expired []*Session
	for _, s := range c.sessions {
		if s.Expired(now) {
			expired = append(expired, s)
		}
	}
	c.mu.RUnlock()

	n := 0
	for _, s := range expired {
		if err := c.end(ctx, s, EventExpired); err != nil {
			log.Warn().Err(err).Str("session_id", s.ID).Msg("failed to drop expired session")
			continue
		}
		n++
	}
	return n
}

// SignIn registers a new session, persists it and announces it.
func (c *Context) SignIn(ctx context.Context, s *Session) (string, error) {
	token, err := c.tokens.Issue(s)
	if err != nil {
		return "", err
	}
	if err := c.store.Save(ctx, s); err != nil {
		return "", err
	}
	ev := Event{Type: EventSignedIn, Session: s}
	c.apply(ev)
	c.publish(ctx, ev)
	return token, nil
}

// SignOut ends the session with the given id. Unknown ids are ignored.
func (c *Context) SignOut(ctx context.Context, sessionID string) error {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.end(ctx, s, EventSignedOut)
}

// Refresh replaces a live session with one under a new id, expiring a token
// TTL from now. Tokens issued for the old id stop resolving.
func (c *Context) Refresh(ctx context.Context, sessionID string) (string, *Session, error) {
	c.mu.RLock()
	current, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok || current.Expired(c.now()) {
		return "", nil, ErrInvalidToken
	}

	next := *current
	next.ID = uuid.NewString()
	next.ExpiresAt = c.now().Add(c.tokens.TTL())
	token, err := c.tokens.Issue(&next)
	if err != nil {
		return "", nil, err
	}
	if err := c.store.Save(ctx, &next); err != nil {
		return "", nil, err
	}
	if err := c.store.Delete(ctx, current.ID); err != nil {
		log.Warn().Err(err).Str("session_id", current.ID).Msg("failed to delete replaced session")
	}

	ev := Event{Type: EventTokenRefreshed, Session: &next, Previous: current.ID}
	c.apply(ev)
	c.publish(ctx, ev)
	return token, &next, nil
}

func (c *Context) end(ctx context.Context, s *Session, typ EventType) error {
	if err := c.store.Delete(ctx, s.ID); err != nil {
		return err
	}
	ev := Event{Type: typ, Session: s}
	c.apply(ev)
	c.publish(ctx, ev)
	return nil
}

func (c *Context) apply(ev Event) {
	c.mu.Lock()
	if ev.Removes() {
		delete(c.sessions, ev.Session.ID)
	} else {
		c.sessions[ev.Session.ID] = ev.Session
	}
	if ev.Previous != "" {
		delete(c.sessions, ev.Previous)
	}
	count := len(c.sessions)
	c.mu.Unlock()

	c.reportActive(count)

	c.lmu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.lmu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func (c *Context) publish(ctx context.Context, ev Event) {
	if c.broker == nil {
		return
	}
	ev.Origin = c.id
	if err := c.broker.Publish(ctx, messaging.ChannelSessions, ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("failed to publish session event")
	}
}

func (c *Context) reportActive(n int) {
	if c.metrics != nil {
		c.metrics.ActiveSessions.Set(float64(n))
	}
}
