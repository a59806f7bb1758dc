package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultTargetSections = 5
)

var sentenceBreaks = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// TargetSections is the section count used when no headings are found.
	TargetSections int
	// ForceSections, when positive, skips heading detection and splits into
	// exactly this many sections if the text allows it.
	ForceSections int
}

// Chunker splits a document into overlapping retrieval chunks and into
// titled sections used to pace a lesson. It holds no state.
type Chunker struct {
	opts Options
}

func New(opts Options) *Chunker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = DefaultChunkOverlap
		if opts.ChunkOverlap >= opts.ChunkSize {
			opts.ChunkOverlap = opts.ChunkSize / 10
		}
	}
	if opts.TargetSections <= 0 {
		opts.TargetSections = DefaultTargetSections
	}
	return &Chunker{opts: opts}
}

// Normalize converts line endings to \n. Offsets in chunks and sections refer to the normalized text.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Split returns the chunks and sections of text. Chunks carry no document
// identity; use SplitDocument to stamp ids.
func (c *Chunker) Split(text string) ([]store.Chunk, []store.Section, error) {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil, nil, apperror.EmptyDocument("document has no extractable text")
	}
	return c.chunk(text), c.sections(text), nil
}

// SplitDocument normalizes doc.RawText, fills doc.Sections and doc.ChunkCount
// and returns chunks with deterministic ids derived from namespace, document id and chunk index.
func (c *Chunker) SplitDocument(doc *store.Document) ([]store.Chunk, error) {
	doc.RawText = Normalize(doc.RawText)
	chunks, sections, err := c.Split(doc.RawText)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].ID = ChunkID(doc.Namespace, doc.ID, chunks[i].Metadata.ChunkIndex)
		chunks[i].DocumentID = doc.ID
		chunks[i].Namespace = doc.Namespace
	}
	doc.Sections = sections
	doc.ChunkCount = len(chunks)
	return chunks, nil
}

func ChunkID(namespace, documentID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%s/%d", namespace, documentID, index))).String()
}

func (c *Chunker) chunk(text string) []store.Chunk {
	var chunks []store.Chunk
	size, overlap := c.opts.ChunkSize, c.opts.ChunkOverlap

	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeFloor(text, end)
			if b := breakBefore(text, start, end); b > start {
				end = b
			}
			if end <= start {
				_, n := utf8.DecodeRuneInString(text[start:])
				end = start + n
			}
		}

		raw := text[start:end]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		if trimmed := strings.TrimRightFunc(raw[lead:], unicode.IsSpace); trimmed != "" {
			chunks = append(chunks, store.Chunk{
				Text: trimmed,
				Metadata: store.ChunkMetadata{
					ChunkIndex: len(chunks),
					StartChar:  start + lead,
					EndChar:    start + lead + len(trimmed),
				},
			})
		}

		if end == len(text) {
			break
		}
		next := runeFloor(text, end-overlap)
		if next <= start {
			// break point landed inside the overlap; continue without overlap
			next = end
		}
		start = next
	}
	return chunks
}

// breakBefore finds the best boundary in text[start:end]: just after the last
// paragraph break, else just after the last sentence break. Returns -1 if none.
func breakBefore(text string, start, end int) int {
	window := text[start:end]
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return start + i + 2
	}
	best := -1
	for _, sep := range sentenceBreaks {
		if i := strings.LastIndex(window, sep); i >= 0 && start+i+len(sep) > best {
			best = start + i + len(sep)
		}
	}
	return best
}

func runeFloor(text string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
