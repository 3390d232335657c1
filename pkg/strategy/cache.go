package strategy

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
)

// CacheKey identifies a trace by everything it depends on. Every field is
// hashed behind its length, so no two sources share a key.
func CacheKey(src domain.Source) string {
	h := sha256.New()
	var n [binary.MaxVarintLen64]byte
	field := func(s string) {
		h.Write(n[:binary.PutUvarint(n[:], uint64(len(s)))])
		h.Write([]byte(s))
	}
	field(src.Language)
	field(src.Code)
	for _, in := range src.Inputs {
		field(in)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type cacheStatusKey struct{}

// WithCacheStatus returns a context under which Cached reports, through the
// returned flag, whether the trace was served from the store.
func WithCacheStatus(ctx context.Context) (context.Context, *bool) {
	hit := new(bool)
	return context.WithValue(ctx, cacheStatusKey{}, hit), hit
}

func (c *Cached) hit(ctx context.Context, hit bool) {
	if flag, ok := ctx.Value(cacheStatusKey{}).(*bool); ok {
		*flag = hit
	}
	c.onHit(hit)
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Cached memoizes the traces of cacheable strategies in a TraceStore.
// Concurrent requests for the same key compute the trace once; with a
// DistributedLocker this holds across replicas sharing the store.
type Cached struct {
	registry *Registry
	store    ports.TraceStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	onHit   func(hit bool)
}

// CacheOption configures Cached.
type CacheOption func(*Cached)

// WithLocker enables distributed locking around trace computation.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) CacheOption {
	return func(c *Cached) {
		c.locker = locker
		c.lockTTL = ttl
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cached) { c.logger = logger }
}

// WithHitObserver registers a callback told about every cache lookup.
func WithHitObserver(fn func(hit bool)) CacheOption {
	return func(c *Cached) { c.onHit = fn }
}

// NewCached wraps registry with store.
func NewCached(registry *Registry, store ports.TraceStore, opts ...CacheOption) *Cached {
	c := &Cached{
		registry: registry,
		store:    store,
		locks:    make(map[string]*lockEntry),
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(),
		onHit:    func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trace returns the stored trace for src or computes and stores it.
func (c *Cached) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	src.Language = c.registry.Canonical(src.Language)
	s := c.registry.Select(src.Language)
	if cs, ok := s.(Cacheable); !ok || !cs.Cacheable() {
		return s.Trace(ctx, src)
	}

	key := CacheKey(src)
	if t, ok := c.load(ctx, key); ok {
		c.hit(ctx, true)
		return t, nil
	}

	var trace *domain.Trace
	err := c.withLock(ctx, key, func(ctx context.Context) error {
		// Another holder may have filled the entry while we waited.
		if t, ok := c.load(ctx, key); ok {
			c.hit(ctx, true)
			trace = t
			return nil
		}
		c.hit(ctx, false)

		t, err := s.Trace(ctx, src)
		if err != nil {
			return err
		}
		trace = t
		// A cancelled run recorded the cancellation, not the program.
		if ctx.Err() != nil {
			return nil
		}
		if err := c.store.Save(ctx, key, t); err != nil {
			c.logger.Warn("failed to cache trace", "key", key, "err", err)
		}
		return nil
	})
	return trace, err
}

func (c *Cached) load(ctx context.Context, key string) (*domain.Trace, bool) {
	t, err := c.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrTraceNotFound) {
			c.logger.Warn("trace cache lookup failed", "key", key, "err", err)
		}
		return nil, false
	}
	return t, true
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (c *Cached) acquire(key string) *lockEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[key]
	if !exists {
		entry = &lockEntry{}
		c.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (c *Cached) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(c.locks, key)
	}
}

// withLock executes fn while holding the lock for key.
func (c *Cached) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := c.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		c.release(key)
	}()

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, key, c.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Use a fresh context: ctx may already be cancelled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
