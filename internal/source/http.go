package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"go.trai.ch/zerr"
)

// CatalogQuery requests one page of the full catalog.
const CatalogQuery = `query CatalogPageQuery($cursor: String, $limit: Int!) {
  assetsOrError(cursor: $cursor, limit: $limit) {
    __typename
    ... on AssetConnection { nodes { id key { path } } }
    ... on PythonError { message stack cause { message stack } }
  }
}`

// ScopedQuery requests every node of one selection scope.
const ScopedQuery = `query CatalogScopeQuery($group: AssetGroupSelector) {
  assetNodes(group: $group) { id assetKey { path } }
}`

// Paths are the JSONPath expressions used to read a response.
type Paths struct {
	Result      string // union holding either nodes or an error
	TypeName    string // union discriminator
	Nodes       string // each node of a page
	ScopedNodes string // each node of a scoped response
	ID          string // node id, relative to a node
	Key         string // node key path, relative to a node
	ScopedKey   string // scoped node key path, relative to a node
	Errors      string // top level request errors
}

// DefaultPaths matches the catalog backend queries above.
func DefaultPaths() Paths {
	return Paths{
		Result:      "$.data.assetsOrError",
		TypeName:    "$.data.assetsOrError.__typename",
		Nodes:       "$.data.assetsOrError.nodes[*]",
		ScopedNodes: "$.data.assetNodes[*]",
		ID:          "$.id",
		Key:         "$.key.path[*]",
		ScopedKey:   "$.assetKey.path[*]",
		Errors:      "$.errors[*].message",
	}
}

type compiledPaths struct {
	result, typeName, nodes, scopedNodes, id, key, scopedKey, errors jp.Expr
}

func compilePaths(p Paths) (compiledPaths, error) {
	var c compiledPaths
	targets := []struct {
		dst  *jp.Expr
		expr string
	}{
		{&c.result, p.Result},
		{&c.typeName, p.TypeName},
		{&c.nodes, p.Nodes},
		{&c.scopedNodes, p.ScopedNodes},
		{&c.id, p.ID},
		{&c.key, p.Key},
		{&c.scopedKey, p.ScopedKey},
		{&c.errors, p.Errors},
	}
	for _, t := range targets {
		x, err := jp.ParseString(t.expr)
		if err != nil {
			return c, fmt.Errorf("invalid jsonpath '%s': %w", t.expr, err)
		}
		*t.dst = x
	}
	return c, nil
}

// HTTPSource reads the catalog from a JSON-over-HTTP query endpoint.
type HTTPSource struct {
	endpoint string
	limit    int
	client   *http.Client
	headers  map[string]string
	paths    compiledPaths
	logger   *slog.Logger
}

var _ contract.CatalogSource = &HTTPSource{} // Compile-time check

// HTTPOption customizes an HTTPSource.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	client  *http.Client
	timeout time.Duration
	headers map[string]string
	paths   Paths
	logger  *slog.Logger
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = client }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) { o.timeout = d }
}

// WithHeader adds a request header.
func WithHeader(name, value string) HTTPOption {
	return func(o *httpOptions) { o.headers[name] = value }
}

// WithPaths overrides the response paths.
func WithPaths(p Paths) HTTPOption {
	return func(o *httpOptions) { o.paths = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(o *httpOptions) { o.logger = logger }
}

// NewHTTPSource creates a source that requests limit entries per page.
func NewHTTPSource(endpoint string, limit int, opts ...HTTPOption) (*HTTPSource, error) {
	o := httpOptions{
		timeout: contract.DefaultSourceTimeout,
		headers: map[string]string{},
		paths:   DefaultPaths(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if limit <= 0 {
		limit = contract.DefaultBatchLimit
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	if o.logger == nil {
		o.logger = contract.DiscardLogger()
	}

	paths, err := compilePaths(o.paths)
	if err != nil {
		return nil, err
	}
	return &HTTPSource{
		endpoint: endpoint,
		limit:    limit,
		client:   o.client,
		headers:  o.headers,
		paths:    paths,
		logger:   o.logger,
	}, nil
}

// FetchPage requests the page that starts after cursor.
func (s *HTTPSource) FetchPage(ctx context.Context, cursor schema.Cursor) (schema.PageResult, error) {
	vars := map[string]any{"cursor": nil, "limit": s.limit}
	if cursor != nil {
		vars["cursor"] = *cursor
	}

	root, err := s.post(ctx, CatalogQuery, vars)
	if err != nil {
		return schema.PageResult{}, err
	}
	if s.paths.result.First(root) == nil {
		return schema.PageResult{}, zerr.With(ErrUnexpectedShape, "url", s.endpoint)
	}

	if typeName, _ := s.paths.typeName.First(root).(string); typeName == schema.PythonErrorType {
		obj, _ := s.paths.result.First(root).(map[string]any)
		return schema.PageResult{Error: decodeDomainError(obj)}, nil
	}

	nodes := s.paths.nodes.Get(root)
	entries := make([]schema.Entry, 0, len(nodes))
	for _, node := range nodes {
		e, err := s.decodeNode(node, s.paths.key)
		if err != nil {
			return schema.PageResult{}, err
		}
		entries = append(entries, e)
	}

	page := schema.PageResult{Data: entries, HasMore: len(entries) == s.limit}
	if page.HasMore {
		page.Cursor = schema.NewCursor(entries[len(entries)-1].ID)
	}
	s.logger.Debug("fetched catalog page", "cursor", schema.CursorString(cursor), "entries", len(entries), "has_more", page.HasMore)
	return page, nil
}

// FetchScope requests every node of scope in one call.
func (s *HTTPSource) FetchScope(ctx context.Context, scope schema.Scope) ([]schema.Entry, error) {
	root, err := s.post(ctx, ScopedQuery, map[string]any{"group": scope})
	if err != nil {
		return nil, err
	}

	nodes := s.paths.scopedNodes.Get(root)
	scoped := make([]schema.ScopedNode, 0, len(nodes))
	for _, node := range nodes {
		e, err := s.decodeNode(node, s.paths.scopedKey)
		if err != nil {
			return nil, err
		}
		var sn schema.ScopedNode
		sn.ID = e.ID
		sn.AssetKey.Path = e.Key
		sn.Definition = e.Payload
		scoped = append(scoped, sn)
	}
	return schema.AdaptScopedNodes(scoped), nil
}

// post sends one query and returns the parsed response document.
func (s *HTTPSource) post(ctx context.Context, query string, vars map[string]any) (any, error) {
	body, err := oj.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode catalog request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build catalog request"), "url", s.endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for name, value := range s.headers {
		req.Header.Set(name, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "catalog request failed"), "url", s.endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read catalog response"), "url", s.endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		return nil, zerr.With(zerr.With(zerr.Wrap(err, "catalog request failed"), "url", s.endpoint), "status", resp.StatusCode)
	}

	root, err := oj.Parse(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse catalog response"), "url", s.endpoint)
	}

	if msgs := s.paths.errors.Get(root); len(msgs) > 0 {
		return nil, zerr.With(fmt.Errorf("catalog query rejected: %v", msgs[0]), "url", s.endpoint)
	}
	return root, nil
}

// decodeNode converts one response node into an Entry. The whole node becomes the payload.
func (s *HTTPSource) decodeNode(node any, keyPath jp.Expr) (schema.Entry, error) {
	id, ok := s.paths.id.First(node).(string)
	if !ok || id == "" {
		return schema.Entry{}, zerr.With(ErrUnexpectedShape, "field", "id")
	}

	segments := keyPath.Get(node)
	key := make([]string, 0, len(segments))
	for _, seg := range segments {
		str, ok := seg.(string)
		if !ok {
			return schema.Entry{}, zerr.With(zerr.With(ErrUnexpectedShape, "field", "key"), "id", id)
		}
		key = append(key, str)
	}

	payload, err := oj.Marshal(node)
	if err != nil {
		return schema.Entry{}, zerr.Wrap(err, "failed to encode node payload")
	}
	return schema.Entry{ID: id, Key: key, Payload: payload}, nil
}

// decodeDomainError reads the error union member, including its cause chain.
func decodeDomainError(obj map[string]any) *schema.DomainError {
	if obj == nil {
		return &schema.DomainError{TypeName: schema.PythonErrorType, Message: "unknown error"}
	}
	derr := &schema.DomainError{TypeName: schema.PythonErrorType}
	if name, ok := obj["__typename"].(string); ok && name != "" {
		derr.TypeName = name
	}
	derr.Message, _ = obj["message"].(string)
	if stack, ok := obj["stack"].([]any); ok {
		for _, line := range stack {
			if str, ok := line.(string); ok {
				derr.Stack = append(derr.Stack, str)
			}
		}
	}
	if cause, ok := obj["cause"].(map[string]any); ok {
		derr.Cause = decodeDomainError(cause)
	}
	return derr
}
