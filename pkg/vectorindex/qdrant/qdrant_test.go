package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-tutor-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func fakeQdrant(t *testing.T, handle func(r recorded) (int, string)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		code, body := handle(rec)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestUpsertSendsNamespacePayload(t *testing.T) {
	srv, calls := fakeQdrant(t, func(r recorded) (int, string) { return 200, `{"status":"ok"}` })
	idx := New(Config{URL: srv.URL, Collection: "chunks", APIKey: "k"})

	err := idx.Upsert(context.Background(), "bio", []vectorindex.Item{{ID: "7f1b", Vector: []float32{1, 0}, DocumentID: "d1", Text: "cells", ChunkIndex: 3}})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/collections/chunks/points", c.path)
	points := c.body["points"].([]any)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "bio", payload["namespace"])
	assert.EqualValues(t, 3, payload["chunk_index"])
}

func TestQueryParsesMatches(t *testing.T) {
	srv, calls := fakeQdrant(t, func(r recorded) (int, string) {
		return 200, `{"result":[{"id":"a","score":0.9,"payload":{"document_id":"d1","text":"cells","chunk_index":2}}]}`
	})
	idx := New(Config{URL: srv.URL, Collection: "chunks"})

	matches, err := idx.Query(context.Background(), "bio", []float32{1, 0}, 3, vectorindex.Filter{DocumentID: "d1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "cells", matches[0].Text)
	assert.Equal(t, 2, matches[0].ChunkIndex)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-6)

	must := (*calls)[0].body["filter"].(map[string]any)["must"].([]any)
	assert.Len(t, must, 2)
}

func TestDeleteCountsThenDeletes(t *testing.T) {
	srv, calls := fakeQdrant(t, func(r recorded) (int, string) {
		if r.path == "/collections/chunks/points/count" {
			return 200, `{"result":{"count":4}}`
		}
		return 200, `{"status":"ok"}`
	})
	idx := New(Config{URL: srv.URL, Collection: "chunks"})

	removed, err := idx.Delete(context.Background(), "bio", vectorindex.Filter{DocumentID: "d1"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, removed)
	require.Len(t, *calls, 2)
	assert.Equal(t, "/collections/chunks/points/delete", (*calls)[1].path)
}

func TestFilterFromChunkUsesRange(t *testing.T) {
	f := buildFilter("bio", vectorindex.Filter{DocumentID: "d1", FromChunk: 3})
	must := f["must"].([]map[string]any)
	require.Len(t, must, 3)
	assert.Equal(t, "chunk_index", must[2]["key"])
	assert.Equal(t, map[string]any{"gte": 3}, must[2]["range"])

	assert.Len(t, buildFilter("bio", vectorindex.Filter{})["must"], 1)
}

func TestDeleteMissingCollectionIsNoop(t *testing.T) {
	srv, _ := fakeQdrant(t, func(r recorded) (int, string) { return 404, `{"status":{"error":"Not found"}}` })
	idx := New(Config{URL: srv.URL, Collection: "chunks"})

	removed, err := idx.Delete(context.Background(), "bio", vectorindex.Filter{DocumentID: "d1"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestStatsScrollsDocuments(t *testing.T) {
	page := 0
	srv, _ := fakeQdrant(t, func(r recorded) (int, string) {
		switch r.path {
		case "/collections/chunks/points/count":
			return 200, `{"result":{"count":3}}`
		case "/collections/chunks/points/scroll":
			page++
			if page == 1 {
				return 200, `{"result":{"points":[{"payload":{"document_id":"d1"}},{"payload":{"document_id":"d1"}}],"next_page_offset":"x"}}`
			}
			return 200, `{"result":{"points":[{"payload":{"document_id":"d2"}}],"next_page_offset":null}}`
		}
		return 500, ""
	})
	idx := New(Config{URL: srv.URL, Collection: "chunks"})

	stats, err := idx.Stats(context.Background(), "bio")
	require.NoError(t, err)
	assert.Equal(t, vectorindex.Stats{Namespace: "bio", VectorCount: 3, DocumentCount: 2}, stats)
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	srv, calls := fakeQdrant(t, func(r recorded) (int, string) {
		if r.method == http.MethodGet {
			return 404, `{}`
		}
		return 200, `{"result":true}`
	})
	idx := New(Config{URL: srv.URL, Collection: "chunks"})

	require.NoError(t, idx.EnsureCollection(context.Background(), 768))
	require.Len(t, *calls, 2)
	vectors := (*calls)[1].body["vectors"].(map[string]any)
	assert.EqualValues(t, 768, vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, New(Config{}).IsConfigured())
	assert.True(t, New(Config{URL: "http://q", Collection: "c"}).IsConfigured())
}
