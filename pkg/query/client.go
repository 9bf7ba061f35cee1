package query

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jwalitptl/clinic-portal/pkg/messaging"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

const (
	DefaultStaleTime = 30 * time.Second
	DefaultGCTime    = 5 * time.Minute
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is what a consumer sees for one key. A read error is carried here
// rather than returned, alongside the last good value if one is cached.
type State[T any] struct {
	Status    Status    `json:"status"`
	Data      T         `json:"data"`
	Err       error     `json:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Config struct {
	// StaleTime is how long a fetched value is served without refetching.
	StaleTime time.Duration `mapstructure:"stale_time"`

	// GCTime is how long an unused entry stays in memory.
	GCTime time.Duration `mapstructure:"gc_time"`
}

type entry struct {
	key       Key
	value     interface{}
	fetchedAt time.Time
}

type flight struct {
	key   Key
	stale bool
}

type invalidation struct {
	Origin string     `json:"origin"`
	Keys   [][]string `json:"keys"`
}

// Client is the process-wide query cache. It is the only writer of its
// store; everything else reads through Fetch or requests invalidation.
type Client struct {
	id        string
	store     *cache.Cache
	group     singleflight.Group
	staleTime time.Duration
	broker    messaging.Broker
	metrics   *metrics.Metrics
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]*flight
}

type Option func(*Client)

// WithBroker fans invalidations out to other instances.
func WithBroker(b messaging.Broker) Option {
	return func(c *Client) { c.broker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = DefaultStaleTime
	}
	if cfg.GCTime < cfg.StaleTime {
		cfg.GCTime = DefaultGCTime
		if cfg.GCTime < cfg.StaleTime {
			cfg.GCTime = cfg.StaleTime
		}
	}

	c := &Client{
		id:        uuid.NewString(),
		store:     cache.New(cfg.GCTime, cfg.GCTime),
		staleTime: cfg.StaleTime,
		now:       time.Now,
		inflight:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start listens for invalidations published by other instances until ctx
// is done. It is a no-op without a broker.
func (c *Client) Start(ctx context.Context) error {
	if c.broker == nil {
		return nil
	}
	msgs, err := c.broker.Subscribe(ctx, messaging.ChannelQueryInvalidate)
	if err != nil {
		return err
	}

	go func() {
		for payload := range msgs {
			var msg invalidation
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Warn().Err(err).Msg("dropping malformed invalidation message")
				continue
			}
			if msg.Origin == c.id {
				continue
			}
			for _, k := range msg.Keys {
				c.invalidateLocal(Key(k))
			}
		}
	}()
	return nil
}

// Fetch returns the cached value for key if it is fresh, otherwise calls fn
// and caches the result. Concurrent calls for the same key share one fn call.
//
// fn runs on a context that keeps ctx's values but not its cancellation: a
// caller that gives up gets ctx.Err() and the shared call keeps going.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ks := key.String()
	entity := key.Entity()

	if e, ok := c.fresh(ks); ok {
		if v, ok := e.value.(T); ok {
			c.hit(entity)
			return v, nil
		}
	}
	c.miss(entity)

	c.mu.Lock()
	if _, joining := c.inflight[ks]; joining && c.metrics != nil {
		c.metrics.QueryDeduplicated.WithLabelValues(entity).Inc()
	}
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ks, func() (interface{}, error) {
		return c.run(detached, key, ks, func(ctx context.Context) (interface{}, error) {
			return fn(ctx)
		})
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Observe is Fetch reported as a State. It never returns an error.
func Observe[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) State[T] {
	v, err := Fetch(ctx, c, key, fn)
	if err != nil {
		st := State[T]{Status: StatusError, Err: err}
		if e, ok := c.get(key.String()); ok {
			if last, ok := e.value.(T); ok {
				st.Data = last
				st.UpdatedAt = e.fetchedAt
			}
		}
		return st
	}

	st := State[T]{Status: StatusSuccess, Data: v}
	if e, ok := c.get(key.String()); ok {
		st.UpdatedAt = e.fetchedAt
	}
	return st
}

// Peek reports the cached state for key without fetching. A key that has
// never been fetched reports StatusLoading.
func Peek[T any](c *Client, key Key) State[T] {
	e, ok := c.get(key.String())
	if !ok {
		return State[T]{Status: StatusLoading}
	}
	v, ok := e.value.(T)
	if !ok {
		return State[T]{Status: StatusLoading}
	}
	return State[T]{Status: StatusSuccess, Data: v, UpdatedAt: e.fetchedAt}
}

// Mutate runs fn and, only if it succeeds, invalidates every key having one
// of keys as prefix. A failed write leaves the cache untouched.
func (c *Client) Mutate(ctx context.Context, fn func(ctx context.Context) error, keys ...Key) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.Invalidate(ctx, keys...)
	return nil
}

// Mutation is Mutate for writes that return a value.
func Mutation[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error), keys ...Key) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	c.Invalidate(ctx, keys...)
	return v, nil
}

// Invalidate drops matching entries here and on every other instance.
func (c *Client) Invalidate(ctx context.Context, keys ...Key) {
	if len(keys) == 0 {
		return
	}
	for _, k := range keys {
		c.invalidateLocal(k)
	}

	if c.broker == nil {
		return
	}
	msg := invalidation{Origin: c.id, Keys: make([][]string, 0, len(keys))}
	for _, k := range keys {
		msg.Keys = append(msg.Keys, []string(k))
	}
	if err := c.broker.Publish(ctx, messaging.ChannelQueryInvalidate, msg); err != nil {
		log.Warn().Err(err).Msg("failed to broadcast cache invalidation")
	}
}

// InvalidateWhere drops local entries whose key satisfies match. Used when a
// user signs out to drop everything keyed on that user.
func (c *Client) InvalidateWhere(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for ks, item := range c.store.Items() {
		e, ok := item.Object.(*entry)
		if !ok || !match(e.key) {
			continue
		}
		c.store.Delete(ks)
		n++
	}
	for ks, f := range c.inflight {
		if match(f.key) {
			f.stale = true
			c.group.Forget(ks)
		}
	}
	if c.metrics != nil {
		c.metrics.QueryInvalidations.Add(float64(n))
	}
	return n
}

func (c *Client) invalidateLocal(prefix Key) int {
	return c.InvalidateWhere(func(k Key) bool { return k.HasPrefix(prefix) })
}

// run executes one shared fetch. A flight invalidated while running still
// answers its callers but does not populate the cache.
func (c *Client) run(ctx context.Context, key Key, ks string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	f := &flight{key: key}
	c.mu.Lock()
	c.inflight[ks] = f
	c.mu.Unlock()

	start := c.now()
	v, err := fn(ctx)
	if c.metrics != nil {
		c.metrics.QueryLatency.WithLabelValues(key.Entity()).Observe(time.Since(start).Seconds())
	}

	c.mu.Lock()
	if c.inflight[ks] == f {
		delete(c.inflight, ks)
	}
	if err == nil && !f.stale {
		c.store.Set(ks, &entry{key: key, value: v, fetchedAt: c.now()}, cache.DefaultExpiration)
	}
	c.mu.Unlock()

	if err != nil {
		if c.metrics != nil {
			c.metrics.QueryErrors.WithLabelValues(key.Entity()).Inc()
		}
		return nil, err
	}
	return v, nil
}

func (c *Client) get(ks string) (*entry, bool) {
	obj, ok := c.store.Get(ks)
	if !ok {
		return nil, false
	}
	e, ok := obj.(*entry)
	return e, ok
}

func (c *Client) fresh(ks string) (*entry, bool) {
	e, ok := c.get(ks)
	if !ok || c.now().Sub(e.fetchedAt) >= c.staleTime {
		return nil, false
	}
	return e, true
}

func (c *Client) hit(entity string) {
	if c.metrics != nil {
		c.metrics.QueryHits.WithLabelValues(entity).Inc()
	}
}

func (c *Client) miss(entity string) {
	if c.metrics != nil {
		c.metrics.QueryMisses.WithLabelValues(entity).Inc()
	}
}
