package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalog layout. JSON files parse as YAML too.
type catalogFile struct {
	Entries []fileEntry         `yaml:"entries"`
	Error   *schema.DomainError `yaml:"error"`
}

type fileEntry struct {
	ID         string         `yaml:"id"`
	Key        []string       `yaml:"key"`
	Group      string         `yaml:"group"`
	Repository string         `yaml:"repository"`
	Location   string         `yaml:"location"`
	Payload    map[string]any `yaml:"payload"`
}

// FileSource serves a catalog file in pages, using the same cursor rule as the HTTP source.
// The file is re-read whenever pagination starts over.
type FileSource struct {
	path  string
	limit int

	mu      sync.Mutex
	entries []fileEntry
}

var _ contract.CatalogSource = &FileSource{} // Compile-time check

// NewFileSource creates a source over the catalog file at path.
func NewFileSource(path string, limit int) *FileSource {
	if limit <= 0 {
		limit = contract.DefaultBatchLimit
	}
	return &FileSource{path: path, limit: limit}
}

// load reads and decodes the catalog file and rejects repeated entry ids.
func (s *FileSource) load() (catalogFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return catalogFile{}, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return catalogFile{}, fmt.Errorf("failed to parse catalog file %s: %w", s.path, err)
	}
	// cursors are entry ids, so a repeated id would send pagination back to its first occurrence
	seen := make(map[string]struct{}, len(cf.Entries))
	for _, fe := range cf.Entries {
		if fe.ID == "" {
			continue
		}
		if _, dup := seen[fe.ID]; dup {
			return catalogFile{}, fmt.Errorf("catalog file %s lists id %q more than once: %w", s.path, fe.ID, ErrUnexpectedShape)
		}
		seen[fe.ID] = struct{}{}
	}
	return cf, nil
}

// FetchPage returns the page after cursor.
func (s *FileSource) FetchPage(ctx context.Context, cursor schema.Cursor) (schema.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return schema.PageResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cursor == nil || s.entries == nil {
		cf, err := s.load()
		if err != nil {
			return schema.PageResult{}, err
		}
		if cf.Error != nil {
			if cf.Error.TypeName == "" {
				cf.Error.TypeName = schema.PythonErrorType
			}
			return schema.PageResult{Error: cf.Error}, nil
		}
		s.entries = cf.Entries
		if s.entries == nil {
			s.entries = []fileEntry{}
		}
	}

	start := 0
	if cursor != nil {
		idx := slices.IndexFunc(s.entries, func(e fileEntry) bool { return e.ID == *cursor })
		if idx < 0 {
			return schema.PageResult{}, fmt.Errorf("unknown cursor %q", *cursor)
		}
		start = idx + 1
	}
	end := min(start+s.limit, len(s.entries))

	data := make([]schema.Entry, 0, end-start)
	for _, fe := range s.entries[start:end] {
		e, err := fe.entry()
		if err != nil {
			return schema.PageResult{}, err
		}
		data = append(data, e)
	}

	page := schema.PageResult{Data: data, HasMore: len(data) == s.limit}
	if page.HasMore {
		page.Cursor = schema.NewCursor(data[len(data)-1].ID)
	}
	return page, nil
}

// FetchScope returns every entry whose scope fields match the non-empty fields of scope.
func (s *FileSource) FetchScope(ctx context.Context, scope schema.Scope) ([]schema.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cf, err := s.load()
	if err != nil {
		return nil, err
	}
	if cf.Error != nil {
		return nil, cf.Error
	}

	var nodes []schema.ScopedNode
	for _, fe := range cf.Entries {
		if !fe.inScope(scope) {
			continue
		}
		e, err := fe.entry()
		if err != nil {
			return nil, err
		}
		var sn schema.ScopedNode
		sn.ID = e.ID
		sn.AssetKey.Path = e.Key
		sn.Definition = e.Payload
		nodes = append(nodes, sn)
	}
	return schema.AdaptScopedNodes(nodes), nil
}

func (fe fileEntry) inScope(scope schema.Scope) bool {
	return (scope.Group == "" || scope.Group == fe.Group) &&
		(scope.Repository == "" || scope.Repository == fe.Repository) &&
		(scope.Location == "" || scope.Location == fe.Location)
}

func (fe fileEntry) entry() (schema.Entry, error) {
	if fe.ID == "" {
		return schema.Entry{}, fmt.Errorf("catalog entry without id: %w", ErrUnexpectedShape)
	}
	e := schema.Entry{ID: fe.ID, Key: fe.Key}
	if e.Key == nil {
		e.Key = []string{}
	}
	if len(fe.Payload) > 0 {
		payload, err := json.Marshal(fe.Payload)
		if err != nil {
			return schema.Entry{}, fmt.Errorf("failed to encode payload of %s: %w", fe.ID, err)
		}
		e.Payload = payload
	}
	return e, nil
}
