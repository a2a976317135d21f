package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/oedokumaci/catalogsync/core/algo"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/iocache"
	"github.com/oedokumaci/catalogsync/internal/outwriter"
	"github.com/oedokumaci/catalogsync/schema"
)

// ErrNoSnapshot means there is nothing to show: no cached snapshot and no successful fetch.
var ErrNoSnapshot = errors.New("no catalog snapshot available")

// ControllerOptions derives controller options from the validated config.
// Scoped controllers get their own key so run records never mix with the full catalog.
func ControllerOptions(cfg *contract.Config) Options {
	key := cfg.CacheKey()
	if cfg.Scope != nil {
		key = contract.CacheNamespace(cfg.InstallID, "scope:"+cfg.Scope.CacheKey())
	}
	return Options{
		CacheKey:        key,
		CacheVersion:    cfg.CacheSchemaVersion,
		RefreshInterval: cfg.RefreshInterval,
		ErrorPolicy:     cfg.ErrorPolicy,
		Scope:           cfg.Scope,
	}
}

// NewSession builds a controller for cfg wired to src and to the stores held by mgr.
// Options passed by the caller are applied last and win over the defaults.
func NewSession(cfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger, opts ...Option) (*Controller, error) {
	if src == nil {
		return nil, errors.New("no catalog source configured")
	}

	base := []Option{WithSource(src), WithLogger(logger)}
	if mgr != nil {
		if store := mgr.GetCacheStore(); store != nil {
			base = append(base, WithSnapshotCache(iocache.NewSnapshotStore(store, logger)))
		}
		if runs := mgr.GetRunStore(); runs != nil {
			base = append(base, WithRunStore(runs))
		}
	}
	if cfg.Scope != nil {
		memo, err := NewScopeMemo(cfg.ScopeMemoSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create scope memo: %w", err)
		}
		base = append(base, WithScopeMemo(memo))
	}

	return NewController(ControllerOptions(cfg), append(base, opts...)...), nil
}

// SyncOnce hydrates from the cache, runs one fetch cycle and waits for the cache write.
// The returned state still carries the cached snapshot when the fetch failed.
func SyncOnce(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) (State, error) {
	c, err := NewSession(cfg, mgr, src, logger)
	if err != nil {
		return State{}, err
	}
	if !shouldSuppressHeader(ctx) {
		logSyncHeader(cfg)
	}

	if c.opts.Scope == nil && c.cache != nil {
		c.hydrate(ctx)
	}
	c.Refresh(ctx)
	c.Stop()

	if err := ctx.Err(); err != nil {
		return c.State(), err
	}
	return c.State(), nil
}

// LoadCached reads the snapshot for cfg from the cache without contacting the source.
func LoadCached(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *slog.Logger) (schema.Snapshot, bool) {
	if mgr == nil || mgr.GetCacheStore() == nil {
		return schema.Snapshot{}, false
	}
	return iocache.NewSnapshotStore(mgr.GetCacheStore(), logger).Get(ctx, cfg.CacheKey(), cfg.CacheSchemaVersion)
}

// ExecuteSync runs one sync cycle and prints the resulting view.
// It serves as the main entry point for the 'sync' command.
func ExecuteSync(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) error {
	state, err := SyncOnce(ctx, cfg, mgr, src, logger)
	if err != nil {
		return err
	}
	return renderState(outwriter.NewOutWriter(), state, cfg)
}

// ExecuteList prints the view over the cached snapshot.
// It serves as the main entry point for the 'list' command.
func ExecuteList(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *slog.Logger) error {
	snap, ok := LoadCached(ctx, cfg, mgr, logger)
	if !ok {
		return fmt.Errorf("%w for %s at version %d; run sync first", ErrNoSnapshot, cfg.CacheKey(), cfg.CacheSchemaVersion)
	}
	return renderState(outwriter.NewOutWriter(), State{Phase: Loaded, Snapshot: &snap}, cfg)
}

// ExecuteWatch keeps the snapshot fresh until ctx is done and prints the view
// whenever the catalog or its error changes.
func ExecuteWatch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) error {
	return watch(ctx, outwriter.NewOutWriter(), cfg, mgr, src, logger)
}

func watch(ctx context.Context, ow *outwriter.OutWriter, cfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger, opts ...Option) error {
	var latest atomic.Pointer[State]
	signal := make(chan struct{}, 1)
	onChange := WithOnChange(func(s State) {
		latest.Store(&s)
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	c, err := NewSession(cfg, mgr, src, logger, append([]Option{onChange}, opts...)...)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		logSyncHeader(cfg)
	}
	c.Start(ctx)
	defer c.Stop()

	var (
		shown   bool
		lastFP  uint64
		lastErr *schema.DomainError
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signal:
			s := latest.Load()
			if s == nil || s.Loading {
				continue
			}
			var fp uint64
			if s.Snapshot != nil {
				fp = s.Snapshot.Fingerprint
			}
			if shown && fp == lastFP && s.Err == lastErr {
				continue
			}
			if err := renderState(ow, *s, cfg); err != nil {
				return err
			}
			shown, lastFP, lastErr = true, fp, s.Err
		}
	}
}

// renderState prints the view of s. A state without data and without error has nothing to show.
func renderState(ow *outwriter.OutWriter, s State, cfg *contract.Config) error {
	if s.Snapshot == nil && s.Err == nil {
		return ErrNoSnapshot
	}
	var snap schema.Snapshot
	if s.Snapshot != nil {
		snap = *s.Snapshot
	}
	listing := algo.ListSnapshot(snap, cfg.Prefix, cfg.View)
	listing.Error = s.Err
	return ow.WriteListing(snap, listing, cfg)
}

// logSyncHeader prints where the catalog comes from and where it is cached.
func logSyncHeader(cfg *contract.Config) {
	target := cfg.CacheKey()
	if cfg.Scope != nil {
		target = "scope " + cfg.Scope.CacheKey()
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔄 Syncing %s from %s (cache: %s, version %d)\n",
		target, cfg.Source, cfg.CacheBackend, cfg.CacheSchemaVersion)
}
