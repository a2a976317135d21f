package schema

import (
	"encoding/json"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Scope selects a subtree of the catalog served by a dedicated query.
type Scope struct {
	Group      string `json:"groupName"`
	Repository string `json:"repositoryName"`
	Location   string `json:"repositoryLocationName"`
}

// IsZero reports whether no field of the scope is set.
func (s Scope) IsZero() bool {
	return s == Scope{}
}

// CacheKey serializes the scope into a stable memo key.
func (s Scope) CacheKey() string {
	data, _ := json.Marshal(s) // struct of strings cannot fail
	return string(data)
}

// ScopedNode is the node shape returned by the scoped query.
// It carries a definition instead of a flat entry and is converted with AdaptScopedNode.
type ScopedNode struct {
	ID       string `json:"id"`
	AssetKey struct {
		Path []string `json:"path"`
	} `json:"assetKey"`
	Definition json.RawMessage `json:"definition,omitempty"`
}

// AdaptScopedNode converts a scoped node into the canonical Entry.
func AdaptScopedNode(node ScopedNode) Entry {
	return Entry{
		ID:      node.ID,
		Key:     node.AssetKey.Path,
		Payload: node.Definition,
	}
}

// AdaptScopedNodes converts a full scoped response.
func AdaptScopedNodes(nodes []ScopedNode) []Entry {
	entries := make([]Entry, len(nodes))
	for i, n := range nodes {
		entries[i] = AdaptScopedNode(n)
	}
	return entries
}

// Fingerprint hashes the ordered entry ids and keys of a collection.
// Payloads are excluded so that cosmetic payload changes do not count as catalog changes.
func Fingerprint(entries []Entry) uint64 {
	d := xxhash.New()
	for _, e := range entries {
		_, _ = d.WriteString(e.ID)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strings.Join(e.Key, "\x1f"))
		_, _ = d.WriteString("\x1e")
	}
	return d.Sum64()
}
