package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-tutor-be/pkg/vectorindex"
)

// Index is a minimal REST client to Qdrant. One collection holds every
// namespace; the namespace is a payload field included in every filter.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

var _ vectorindex.Index = (*Index)(nil)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Index) IsConfigured() bool {
	return s.url != "" && s.collection != ""
}

// EnsureCollection creates the collection with cosine distance when it does not exist yet.
func (s *Index) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if err == nil {
		return nil
	}
	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusNotFound {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

func (s *Index) Upsert(ctx context.Context, namespace string, items []vectorindex.Item) error {
	if len(items) == 0 {
		return nil
	}
	points := make([]point, len(items))
	for i, it := range items {
		points[i] = point{
			ID:     it.ID,
			Vector: it.Vector,
			Payload: map[string]any{
				"namespace":   namespace,
				"document_id": it.DocumentID,
				"text":        it.Text,
				"chunk_index": it.ChunkIndex,
				"start_char":  it.StartChar,
				"end_char":    it.EndChar,
			},
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       buildFilter(namespace, filter),
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vectorindex.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := vectorindex.Match{Score: r.Score}
		m.ID = fmt.Sprint(r.ID)
		m.Namespace = namespace
		m.DocumentID, _ = r.Payload["document_id"].(string)
		m.Text, _ = r.Payload["text"].(string)
		m.ChunkIndex = intField(r.Payload, "chunk_index")
		m.StartChar = intField(r.Payload, "start_char")
		m.EndChar = intField(r.Payload, "end_char")
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *Index) Delete(ctx context.Context, namespace string, filter vectorindex.Filter) (int64, error) {
	n, err := s.count(ctx, namespace, filter)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	body := map[string]any{"filter": buildFilter(namespace, filter)}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats counts vectors exactly and documents by scrolling the document_id payload.
func (s *Index) Stats(ctx context.Context, namespace string) (vectorindex.Stats, error) {
	stats := vectorindex.Stats{Namespace: namespace}
	n, err := s.count(ctx, namespace, vectorindex.Filter{})
	if err != nil {
		return stats, err
	}
	stats.VectorCount = n

	docs := make(map[string]struct{})
	var offset any
	for {
		req := map[string]any{
			"filter":       buildFilter(namespace, vectorindex.Filter{}),
			"limit":        256,
			"with_payload": []string{"document_id"},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
			return stats, err
		}
		for _, p := range resp.Result.Points {
			if id, ok := p.Payload["document_id"].(string); ok {
				docs[id] = struct{}{}
			}
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}
	stats.DocumentCount = int64(len(docs))
	return stats, nil
}

func (s *Index) count(ctx context.Context, namespace string, filter vectorindex.Filter) (int64, error) {
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"filter": buildFilter(namespace, filter), "exact": true}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func buildFilter(namespace string, filter vectorindex.Filter) map[string]any {
	must := []map[string]any{
		{"key": "namespace", "match": map[string]any{"value": namespace}},
	}
	if filter.DocumentID != "" {
		must = append(must, map[string]any{"key": "document_id", "match": map[string]any{"value": filter.DocumentID}})
	}
	if filter.FromChunk > 0 {
		must = append(must, map[string]any{"key": "chunk_index", "range": map[string]any{"gte": filter.FromChunk}})
	}
	return map[string]any{"must": must}
}

func intField(payload map[string]any, key string) int {
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}

func (s *Index) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

type statusError struct {
	method string
	url    string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: status %d: %s", e.method, e.url, e.code, e.body)
}

func (s *Index) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{method: method, url: url, code: resp.StatusCode, body: string(msg)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
