// Package core keeps a catalog snapshot fresh by paginating a remote source,
// hydrating from the local cache and refreshing in the background.
package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/oedokumaci/catalogsync/core"

// Options configures one controller.
type Options struct {
	CacheKey        string
	CacheVersion    int
	RefreshInterval time.Duration
	ErrorPolicy     schema.ErrorPolicy
	Scope           *schema.Scope // non-nil switches to the scoped query
}

// Ticker delivers refresh ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates the refresh ticker.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPageFetcher sets the paginated source.
func WithPageFetcher(f contract.PageFetcher) Option {
	return func(c *Controller) { c.fetchPage = f }
}

// WithScopeFetcher sets the scoped source.
func WithScopeFetcher(f contract.ScopeFetcher) Option {
	return func(c *Controller) { c.fetchScope = f }
}

// WithSource sets both fetchers from one catalog source.
func WithSource(src contract.CatalogSource) Option {
	return func(c *Controller) {
		c.fetchPage = src.FetchPage
		c.fetchScope = src.FetchScope
	}
}

// WithSnapshotCache sets the durable cache used for hydration and persistence.
func WithSnapshotCache(cache contract.SnapshotCache) Option {
	return func(c *Controller) { c.cache = cache }
}

// WithScopeMemo sets the memo consulted in scoped mode.
func WithScopeMemo(memo *ScopeMemo) Option {
	return func(c *Controller) { c.memo = memo }
}

// WithRunStore records every fetch cycle.
func WithRunStore(runs contract.RunStore) Option {
	return func(c *Controller) { c.runs = runs }
}

// WithOnChange registers a callback invoked after every state change.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTracer sets the tracer used for fetch cycle spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) { c.tracer = tracer }
}

// WithTickerFactory replaces the refresh ticker, mostly for tests.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Controller) { c.newTicker = f }
}

// Controller owns one catalog snapshot and keeps it fresh.
// All state transitions go through reduce.
type Controller struct {
	opts       Options
	fetchPage  contract.PageFetcher
	fetchScope contract.ScopeFetcher
	cache      contract.SnapshotCache
	memo       *ScopeMemo
	runs       contract.RunStore
	onChange   func(State)
	logger     *slog.Logger
	tracer     trace.Tracer
	newTicker  TickerFactory
	now        func() time.Time

	inFlight atomic.Bool

	mu      sync.Mutex
	state   State
	started bool
	stopped bool
	cancel  context.CancelFunc
	// closed when the newest cache write has finished; writes run one after another
	lastWrite chan struct{}

	wg sync.WaitGroup
}

// NewController creates an idle controller. Nothing runs until Start or Refresh.
func NewController(cfg Options, opts ...Option) *Controller {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = contract.DefaultRefreshInterval
	}
	if cfg.ErrorPolicy == "" {
		cfg.ErrorPolicy = schema.SwallowErrors
	}
	if cfg.CacheKey == "" {
		cfg.CacheKey = contract.CacheNamespace(contract.DefaultInstallID, contract.CatalogCacheName)
	}

	c := &Controller{
		opts:      cfg,
		state:     newState(),
		newTicker: newTimeTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = contract.DiscardLogger()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// State returns the current view. The snapshot entries are shared and must not be mutated.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start hydrates from the cache, fires a leading refresh and then refreshes every interval.
// Calling Start more than once, or after Stop, does nothing.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(2)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		var g errgroup.Group
		if c.opts.Scope == nil && c.cache != nil {
			c.dispatch(event{kind: evHydrateStart})
			g.Go(func() error {
				c.hydrate(ctx)
				return nil
			})
		}
		g.Go(func() error {
			c.Refresh(ctx)
			return nil
		})
		_ = g.Wait()
	}()

	go func() {
		defer c.wg.Done()
		ticker := c.newTicker(c.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				if !c.Refresh(ctx) {
					c.logger.Debug("refresh skipped, fetch already in flight", "key", c.opts.CacheKey)
				}
			}
		}
	}()
}

// Stop cancels the refresh timer and waits for background work to finish.
// A fetch that is still in flight completes but its result is discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Flush waits for every cache write started so far. Unlike Stop it leaves the controller running.
func (c *Controller) Flush() {
	c.mu.Lock()
	last := c.lastWrite
	c.mu.Unlock()
	if last != nil {
		<-last
	}
}

// Refresh runs one fetch cycle unless one is already in flight.
// It reports whether a cycle ran.
func (c *Controller) Refresh(ctx context.Context) bool {
	if c.isStopped() {
		return false
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer c.inFlight.Store(false)

	c.cycle(ctx)
	return true
}

// hydrate reads the cached snapshot, if any.
func (c *Controller) hydrate(ctx context.Context) {
	snap, ok := c.cache.Get(ctx, c.opts.CacheKey, c.opts.CacheVersion)
	if !ok {
		c.dispatch(event{kind: evHydrateMiss})
		return
	}
	c.logger.Debug("hydrated from cache", "key", c.opts.CacheKey, "entries", snap.Len())
	c.dispatch(event{kind: evCacheHit, snapshot: &snap})
}

// cycle fetches the catalog once and feeds the outcome into the reducer.
func (c *Controller) cycle(ctx context.Context) {
	scoped := c.opts.Scope != nil
	ctx, span := c.tracer.Start(ctx, "catalogsync.fetch_cycle", trace.WithAttributes(
		attribute.String("catalogsync.cache_key", c.opts.CacheKey),
		attribute.Bool("catalogsync.scoped", scoped),
	))
	defer span.End()

	start := c.now()
	runID, recorded := c.beginRun(start)

	var (
		entries []schema.Entry
		stats   FetchStats
		err     error
	)
	if scoped {
		entries, err = c.fetchScoped(ctx)
		stats = FetchStats{Pages: 1, Entries: len(entries)}
	} else if c.fetchPage == nil {
		err = errors.New("no page fetcher configured")
	} else {
		entries, stats, err = FetchAllWithStats(ctx, c.tracedPageFetcher())
	}
	span.SetAttributes(attribute.Int("catalogsync.pages", stats.Pages), attribute.Int("catalogsync.entries", stats.Entries))

	result := schema.RunResult{Entries: stats.Entries, Pages: stats.Pages}
	var derr *schema.DomainError
	switch {
	case err == nil:
		result.Outcome = schema.OutcomeSuccess
		snap := schema.NewSnapshot(entries, c.now())
		c.applyFetched(ctx, snap, !scoped)

	case errors.As(err, &derr):
		result.Outcome = schema.OutcomeDomainError
		result.ErrorMsg = derr.Error()
		span.SetStatus(codes.Error, derr.Message)
		c.logger.Warn("catalog source reported an error", "key", c.opts.CacheKey, "type", derr.TypeName, "message", derr.Message)
		c.dispatch(event{kind: evFetchDomainError, err: derr})

	default:
		result.Outcome = schema.OutcomeFailure
		if errors.Is(err, ErrNoProgress) || errors.Is(err, ErrDuplicateEntry) {
			result.Outcome = schema.OutcomeProgressViolation
		}
		result.ErrorMsg = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("catalog fetch failed", "key", c.opts.CacheKey, "error", err, "policy", c.opts.ErrorPolicy)
		c.dispatch(event{kind: evFetchFailure, err: err})
	}

	if recorded {
		if err := c.runs.EndRun(runID, c.now(), result); err != nil {
			c.logger.Debug("failed to record run end", "run", runID, "error", err)
		}
	}
}

// fetchScoped serves the memo first and then asks the scoped source.
func (c *Controller) fetchScoped(ctx context.Context) ([]schema.Entry, error) {
	if c.fetchScope == nil {
		return nil, errors.New("no scope fetcher configured")
	}
	scope := *c.opts.Scope
	if c.memo == nil {
		return c.fetchScope(ctx, scope)
	}
	if cached, ok := c.memo.Get(scope); ok {
		snap := schema.NewSnapshot(cached, c.now())
		c.dispatch(event{kind: evCacheHit, snapshot: &snap})
	}
	return c.memo.Fetch(ctx, scope, c.fetchScope)
}

// tracedPageFetcher wraps the page fetcher with one span per page.
func (c *Controller) tracedPageFetcher() contract.PageFetcher {
	return func(ctx context.Context, cursor schema.Cursor) (schema.PageResult, error) {
		ctx, span := c.tracer.Start(ctx, "catalogsync.fetch_page", trace.WithAttributes(
			attribute.String("catalogsync.cursor", schema.CursorString(cursor)),
		))
		defer span.End()

		page, err := c.fetchPage(ctx, cursor)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return page, err
		}
		span.SetAttributes(attribute.Int("catalogsync.page_size", len(page.Data)), attribute.Bool("catalogsync.has_more", page.HasMore))
		return page, nil
	}
}

// applyFetched installs a fresh snapshot and, when persist is set, writes it to the cache
// in the background. Cache write failures never affect state.
func (c *Controller) applyFetched(ctx context.Context, snap schema.Snapshot, persist bool) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.logger.Debug("discarding fetch result after stop", "key", c.opts.CacheKey)
		return
	}
	if prev := c.state.Snapshot; prev != nil && prev.Fingerprint == snap.Fingerprint {
		c.logger.Debug("catalog unchanged", "key", c.opts.CacheKey, "entries", snap.Len())
	}
	c.state = reduce(c.state, event{kind: evFetchSuccess, snapshot: &snap}, c.opts.ErrorPolicy)
	state := c.state
	if persist && c.cache != nil {
		// registered under the lock so that Stop always waits for it
		wctx := context.WithoutCancel(ctx)
		prev, done := c.lastWrite, make(chan struct{})
		c.lastWrite = done
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer close(done)
			if prev != nil {
				<-prev
			}
			if err := c.cache.Set(wctx, c.opts.CacheKey, snap, c.opts.CacheVersion); err != nil {
				c.logger.Warn("failed to persist snapshot", "key", c.opts.CacheKey, "error", err)
			}
		}()
	}
	c.mu.Unlock()

	c.notify(state)
}

// dispatch feeds an event into the reducer unless the controller is stopped.
func (c *Controller) dispatch(ev event) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	next := reduce(c.state, ev, c.opts.ErrorPolicy)
	changed := next != c.state
	c.state = next
	c.mu.Unlock()

	if changed {
		c.notify(next)
	}
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Controller) beginRun(start time.Time) (int64, bool) {
	if c.runs == nil {
		return 0, false
	}
	params := map[string]any{
		"scoped":       c.opts.Scope != nil,
		"error_policy": string(c.opts.ErrorPolicy),
		"version":      c.opts.CacheVersion,
	}
	if c.opts.Scope != nil {
		params["scope"] = c.opts.Scope.CacheKey()
	}
	id, err := c.runs.BeginRun(start, c.opts.CacheKey, params)
	if err != nil {
		c.logger.Debug("failed to record run start", "error", err)
		return 0, false
	}
	return id, true
}
