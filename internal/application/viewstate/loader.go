package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FetchFunc loads the data of a screen
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Result describes what one Load did to the store
type Result struct {
	// Applied is set when the load published a snapshot
	Applied bool
	// Degraded is set when the published snapshot is fallback content
	Degraded bool
	// Stale is set when a newer load was issued before this one finished
	// and its result was discarded
	Stale bool
	// Err is the load failure. With Applied false the store is untouched and
	// the load can be retried.
	Err error
}

// Options configures loaders and dispatchers
type Options struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Loader runs a screen's fetch and publishes the result into its store.
// Every call is sequenced: only the most recently issued load may publish,
// and starting a load cancels the one it supersedes.
type Loader[V any] struct {
	name     string
	store    *Store[V]
	fetch    FetchFunc[V]
	fallback func() V
	opts     Options

	seq    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewLoader creates a loader for the named screen
func NewLoader[V any](name string, store *Store[V], fetch FetchFunc[V], opts Options) *Loader[V] {
	opts = opts.withDefaults()
	return &Loader[V]{
		name:  name,
		store: store,
		fetch: fetch,
		opts:  opts,
	}
}

// WithFallback sets the content published, marked degraded, when a fetch
// fails. Without a fallback a failed load leaves the store untouched.
func (l *Loader[V]) WithFallback(fallback func() V) *Loader[V] {
	l.fallback = fallback
	return l
}

// Store returns the store the loader publishes into
func (l *Loader[V]) Store() *Store[V] {
	return l.store
}

// Load fetches and publishes
func (l *Loader[V]) Load(ctx context.Context) Result {
	seq := l.seq.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	start := l.opts.Now()
	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq.Load() {
		l.opts.Metrics.LoaderResult(l.name, telemetry.OutcomeStale)
		l.opts.Logger.Debug("discarding stale load",
			zap.String("screen", l.name),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", l.seq.Load()))
		return Result{Stale: true, Err: err}
	}
	l.cancel = nil

	if err == nil {
		l.store.publish(&Snapshot[V]{Data: data, Seq: seq, LoadedAt: l.opts.Now()})
		l.opts.Metrics.LoaderResult(l.name, telemetry.OutcomeOK)
		l.opts.Logger.Debug("screen loaded",
			zap.String("screen", l.name),
			zap.Duration("elapsed", l.opts.Now().Sub(start)))
		return Result{Applied: true}
	}

	// Sample data never stands in for a session the user has to renew
	if l.fallback != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, shared.ErrSessionExpired) {
		l.store.publish(&Snapshot[V]{Data: l.fallback(), Degraded: true, Err: err, Seq: seq, LoadedAt: l.opts.Now()})
		l.opts.Metrics.LoaderResult(l.name, telemetry.OutcomeDegraded)
		l.opts.Logger.Warn("load failed, showing fallback data",
			zap.String("screen", l.name),
			zap.Error(err))
		return Result{Applied: true, Degraded: true, Err: err}
	}

	l.opts.Metrics.LoaderResult(l.name, telemetry.OutcomeFailed)
	l.opts.Logger.Warn("load failed", zap.String("screen", l.name), zap.Error(err))
	return Result{Err: fmt.Errorf("loading %s: %w", l.name, err)}
}
