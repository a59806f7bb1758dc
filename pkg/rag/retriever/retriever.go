package retriever

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/vectorindex"
)

const (
	module = "RETRIEVER"

	// ContextSeparator sits between consecutive chunks in the assembled context.
	ContextSeparator = "\n\n---\n\n"
)

type Options struct {
	TopK            int
	MaxContextChars int
}

// Query describes one retrieval. Zero TopK or MaxContextChars fall back to the
// retriever defaults.
type Query struct {
	Text            string
	Namespace       string
	DocumentID      string
	TopK            int
	MaxContextChars int
}

// Retriever embeds a query and returns the best matching chunks that fit a
// character budget. It never fails: any collaborator problem yields an empty result.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	index    vectorindex.Index
	logger   logger.ILogger
	opts     Options
}

func New(embedder embedding.EmbeddingProvider, index vectorindex.Index, log logger.ILogger, opts Options) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 2000
	}
	return &Retriever{embedder: embedder, index: index, logger: log, opts: opts}
}

func (r *Retriever) IsConfigured() bool {
	return r.index != nil && r.embedder != nil && r.index.IsConfigured()
}

func (r *Retriever) Retrieve(ctx context.Context, q Query) store.RetrievalResult {
	if strings.TrimSpace(q.Text) == "" || !r.IsConfigured() {
		return store.RetrievalResult{}
	}
	topK := q.TopK
	if topK <= 0 {
		topK = r.opts.TopK
	}
	budget := q.MaxContextChars
	if budget <= 0 {
		budget = r.opts.MaxContextChars
	}

	vectors, err := r.embedder.Generate(ctx, []string{q.Text}, embedding.TaskRetrievalQuery)
	if err != nil || len(vectors) != 1 {
		r.logger.Warn(module, "Query embedding failed, continuing without context", map[string]interface{}{
			"namespace": q.Namespace,
			"error":     errString(err),
		})
		return store.RetrievalResult{}
	}

	matches, err := r.index.Query(ctx, q.Namespace, vectors[0], topK, vectorindex.Filter{DocumentID: q.DocumentID})
	if err != nil {
		r.logger.Warn(module, "Vector query failed, continuing without context", map[string]interface{}{
			"namespace": q.Namespace,
			"error":     err.Error(),
		})
		return store.RetrievalResult{}
	}

	result := Assemble(matches, topK, budget)
	r.logger.Debug(module, "Context retrieved", map[string]interface{}{
		"namespace": q.Namespace,
		"matches":   len(matches),
		"used":      len(result.Chunks),
		"chars":     len(result.Context),
	})
	return result
}

// Assemble ranks matches by descending score, breaking ties by document order,
// keeps at most topK and greedily adds chunk texts while the context stays
// within budget. A first chunk larger than the whole budget is cut to fit.
func Assemble(matches []vectorindex.Match, topK, budget int) store.RetrievalResult {
	ranked := append([]vectorindex.Match(nil), matches...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkIndex < b.ChunkIndex
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	var (
		result store.RetrievalResult
		sb     strings.Builder
	)
	for _, m := range ranked {
		text := m.Text
		need := len(text)
		if sb.Len() > 0 {
			need += len(ContextSeparator)
		}
		if sb.Len()+need > budget {
			if sb.Len() == 0 {
				text = truncate(text, budget)
			} else {
				break
			}
		}
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(ContextSeparator)
		}
		sb.WriteString(text)
		result.Chunks = append(result.Chunks, store.ScoredChunk{Chunk: toChunk(m), Score: m.Score})
		if len(text) < len(m.Text) {
			break
		}
	}
	result.Context = sb.String()
	return result
}

func toChunk(m vectorindex.Match) store.Chunk {
	return store.Chunk{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		Namespace:  m.Namespace,
		Text:       m.Text,
		Metadata: store.ChunkMetadata{
			ChunkIndex: m.ChunkIndex,
			StartChar:  m.StartChar,
			EndChar:    m.EndChar,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func errString(err error) string {
	if err == nil {
		return "unexpected vector count"
	}
	return err.Error()
}
