package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oedokumaci/catalogsync/core"
	"github.com/oedokumaci/catalogsync/core/algo"
	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/internal/iocache"
	"github.com/oedokumaci/catalogsync/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
// One controller lives as long as the server, so every refresh shares its
// in-flight guard and, in scoped mode, its scope memo.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	logger  *slog.Logger

	session    *core.Controller // nil without a source
	sessionErr error
}

// newToolHandler builds the handler and its controller. A nil src leaves refresh_catalog disabled.
func newToolHandler(baseCfg *contract.Config, mgr contract.CacheManager, src contract.CatalogSource, logger *slog.Logger) *toolHandler {
	h := &toolHandler{baseCfg: baseCfg, mgr: mgr, logger: logger}
	if src == nil {
		h.sessionErr = errors.New("no catalog source configured; start the server with --source")
		return h
	}
	session, err := core.NewSession(baseCfg, mgr, src, logger)
	if err != nil {
		h.sessionErr = err
		return h
	}
	h.session = session
	return h
}

// close stops the controller and waits for pending cache writes.
func (h *toolHandler) close() {
	if h.session != nil {
		h.session.Stop()
	}
}

// groupOutput is the payload of group_entries.
type groupOutput struct {
	Prefix     []string           `json:"prefix"`
	Namespaces []schema.Namespace `json:"namespaces"`
	Displayed  []schema.Entry     `json:"displayed"`
}

// refreshOutput is the payload of refresh_catalog.
type refreshOutput struct {
	Phase       string              `json:"phase"`
	Entries     int                 `json:"entries"`
	Fingerprint uint64              `json:"fingerprint"`
	Error       *schema.DomainError `json:"error,omitempty"`
}

// statusOutput is the payload of cache_status.
type statusOutput struct {
	Cache    schema.CacheStatus `json:"cache"`
	Snapshot schema.SlotStatus  `json:"snapshot"`
	Runs     *schema.RunStatus  `json:"runs,omitempty"`
}

func (h *toolHandler) handleListEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix, err := parsePrefix(request.GetString("prefix", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid prefix: %v", err)), nil
	}
	view := h.baseCfg.View
	if v := request.GetString("view", ""); v != "" {
		view = schema.ViewMode(strings.ToLower(v))
	}
	if _, ok := schema.ValidViewModes[view]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid view '%s'. must be flat or directory", view)), nil
	}

	snap, ok := h.snapshot(ctx)
	if !ok {
		return mcp.NewToolResultError("no catalog snapshot available; call refresh_catalog first"), nil
	}

	listing := algo.ListSnapshot(snap, prefix, view)
	return jsonResult(listing)
}

func (h *toolHandler) handleGroupEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix, err := parsePrefix(request.GetString("prefix", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid prefix: %v", err)), nil
	}

	snap, ok := h.snapshot(ctx)
	if !ok {
		return mcp.NewToolResultError("no catalog snapshot available; call refresh_catalog first"), nil
	}

	ix := algo.NewIndex(snap.Entries)
	grouping := ix.Group(prefix)
	return jsonResult(groupOutput{
		Prefix:     prefix,
		Namespaces: ix.Namespaces(prefix),
		Displayed:  grouping.Displayed,
	})
}

func (h *toolHandler) handleRefreshCatalog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.session == nil {
		return mcp.NewToolResultError(h.sessionErr.Error()), nil
	}

	if !h.session.Refresh(ctx) {
		return mcp.NewToolResultError("refresh already in flight; try again once it completes"), nil
	}
	// the cycle's cache write lands before cache_status can be asked about it
	h.session.Flush()
	if err := ctx.Err(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh canceled: %v", err)), nil
	}

	state := h.session.State()
	out := refreshOutput{Phase: state.Phase.String(), Error: state.Err}
	if state.Snapshot != nil {
		out.Entries = state.Snapshot.Len()
		out.Fingerprint = state.Snapshot.Fingerprint
	}
	return jsonResult(out)
}

func (h *toolHandler) handleCacheStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.mgr == nil || h.mgr.GetCacheStore() == nil {
		return mcp.NewToolResultError("snapshot cache is not initialized"), nil
	}
	store := h.mgr.GetCacheStore()

	var out statusOutput
	var err error
	if out.Cache, err = store.GetStatus(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get cache status: %v", err)), nil
	}
	slots := iocache.NewSnapshotStore(store, h.logger)
	if out.Snapshot, err = slots.Slot(ctx, h.baseCfg.CacheKey(), h.baseCfg.CacheSchemaVersion); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read snapshot slot: %v", err)), nil
	}
	if runs := h.mgr.GetRunStore(); runs != nil {
		status, err := runs.GetStatus()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get run status: %v", err)), nil
		}
		out.Runs = &status
	}
	return jsonResult(out)
}

// snapshot returns the session's snapshot, falling back to the cache.
func (h *toolHandler) snapshot(ctx context.Context) (schema.Snapshot, bool) {
	if h.session != nil {
		if s := h.session.State(); s.Snapshot != nil {
			return *s.Snapshot, true
		}
	}
	return core.LoadCached(ctx, h.baseCfg, h.mgr, h.logger)
}

// parsePrefix splits a slash-separated prefix. Empty inner segments are rejected
// because no catalog key contains them.
func parsePrefix(raw string) ([]string, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "/")
	if raw == "" {
		return []string{}, nil
	}
	parts := strings.Split(raw, "/")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("empty key segment in %q", raw)
		}
	}
	return parts, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
