package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/oedokumaci/catalogsync/core"
	"github.com/oedokumaci/catalogsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// catalogServer serves total nodes named n0..n{total-1} in cursor order.
func catalogServer(t *testing.T, total int) (*httptest.Server, *[]gqlRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []gqlRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()

		limit := int(req.Variables["limit"].(float64))
		start := 0
		if c, ok := req.Variables["cursor"].(string); ok {
			n, err := strconv.Atoi(c[1:])
			require.NoError(t, err)
			start = n + 1
		}

		nodes := []map[string]any{}
		for i := start; i < total && len(nodes) < limit; i++ {
			nodes = append(nodes, map[string]any{
				"id":  fmt.Sprintf("n%d", i),
				"key": map[string]any{"path": []string{"ns", fmt.Sprintf("asset%d", i)}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"assetsOrError": map[string]any{"__typename": "AssetConnection", "nodes": nodes},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestHTTPSourceFetchPage(t *testing.T) {
	srv, seen := catalogServer(t, 5)
	src, err := NewHTTPSource(srv.URL, 2)
	require.NoError(t, err)

	page, err := src.FetchPage(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "n1", schema.CursorString(page.Cursor))
	assert.Equal(t, []string{"ns", "asset0"}, page.Data[0].Key)
	assert.JSONEq(t, `{"id":"n0","key":{"path":["ns","asset0"]}}`, string(page.Data[0].Payload))

	require.Len(t, *seen, 1)
	assert.Nil(t, (*seen)[0].Variables["cursor"])
	assert.Contains(t, (*seen)[0].Query, "assetsOrError")
}

func TestHTTPSourcePaginatesToCompletion(t *testing.T) {
	srv, seen := catalogServer(t, 5)
	src, err := NewHTTPSource(srv.URL, 2)
	require.NoError(t, err)

	entries, err := core.FetchAll(context.Background(), src.FetchPage)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "n4", entries[4].ID)
	assert.Len(t, *seen, 3)
	assert.Equal(t, "n3", (*seen)[2].Variables["cursor"])
}

func TestHTTPSourceExactMultipleNeedsExtraPage(t *testing.T) {
	srv, seen := catalogServer(t, 4)
	src, err := NewHTTPSource(srv.URL, 2)
	require.NoError(t, err)

	entries, err := core.FetchAll(context.Background(), src.FetchPage)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Len(t, *seen, 3, "a full last page is followed by an empty one")
}

func TestHTTPSourceDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"assetsOrError":{"__typename":"PythonError","message":"boom","stack":["a.py:1"],"cause":{"message":"root cause"}}}}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, 10)
	require.NoError(t, err)

	page, err := src.FetchPage(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, page.Error)
	assert.Equal(t, schema.PythonErrorType, page.Error.TypeName)
	assert.Equal(t, "boom", page.Error.Message)
	assert.Equal(t, []string{"a.py:1"}, page.Error.Stack)
	require.NotNil(t, page.Error.Cause)
	assert.Equal(t, "root cause", page.Error.Cause.Message)
	assert.Empty(t, page.Data)
}

func TestHTTPSourceTransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
		shape   bool
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: "unexpected status 502",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":`))
			},
			want: "failed to parse catalog response",
		},
		{
			name: "query errors",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"errors":[{"message":"Cannot query field"}]}`))
			},
			want: "Cannot query field",
		},
		{
			name: "missing union",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{}}`))
			},
			want:  ErrUnexpectedShape.Error(),
			shape: true,
		},
		{
			name: "node without id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"assetsOrError":{"nodes":[{"key":{"path":["a"]}}]}}}`))
			},
			want:  ErrUnexpectedShape.Error(),
			shape: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src, err := NewHTTPSource(srv.URL, 10)
			require.NoError(t, err)

			_, err = src.FetchPage(context.Background(), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.shape, errors.Is(err, ErrUnexpectedShape))

			var derr *schema.DomainError
			assert.False(t, errors.As(err, &derr))
		})
	}
}

func TestHTTPSourceKeepsNodePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"assetsOrError":{"__typename":"AssetConnection","nodes":[
			{"id":"p1","key":{"path":["raw","café"]},"size":1024,"ratio":0.5,"stale":false,"owner":null,"tags":["a","b"]}
		]}}}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, 10)
	require.NoError(t, err)

	page, err := src.FetchPage(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, []string{"raw", "café"}, page.Data[0].Key)
	assert.JSONEq(t,
		`{"id":"p1","key":{"path":["raw","café"]},"size":1024,"ratio":0.5,"stale":false,"owner":null,"tags":["a","b"]}`,
		string(page.Data[0].Payload))
	assert.True(t, json.Valid(page.Data[0].Payload))
}

func TestHTTPSourceFetchScope(t *testing.T) {
	var got gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"assetNodes":[
			{"id":"g1","assetKey":{"path":["raw","users"]},"groupName":"analytics"},
			{"id":"g2","assetKey":{"path":["raw","orders"]},"groupName":"analytics"}
		]}}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, 10, WithHeader("Authorization", "Bearer t"))
	require.NoError(t, err)

	entries, err := src.FetchScope(context.Background(), schema.Scope{Group: "analytics", Repository: "repo"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "g1", entries[0].ID)
	assert.Equal(t, []string{"raw", "orders"}, entries[1].Key)
	assert.Contains(t, string(entries[0].Payload), `"groupName":"analytics"`)

	group := got.Variables["group"].(map[string]any)
	assert.Equal(t, "analytics", group["groupName"])
	assert.Equal(t, "repo", group["repositoryName"])
	assert.Contains(t, got.Query, "assetNodes")
}

func TestHTTPSourceSendsHeaders(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"assetsOrError":{"nodes":[]}}}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL, 10, WithHeader("Authorization", "Bearer t"))
	require.NoError(t, err)

	page, err := src.FetchPage(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Equal(t, "Bearer t", auth)
}

func TestHTTPSourceInvalidPaths(t *testing.T) {
	p := DefaultPaths()
	p.Nodes = "$.nodes["
	_, err := NewHTTPSource("http://localhost", 10, WithPaths(p))
	assert.Error(t, err)
}
