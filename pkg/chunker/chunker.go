package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/pkg/utils"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 300
)

var ErrMissingURL = errors.New("chunker: source url is required")

var (
	blankLineRun = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceRun     = regexp.MustCompile(` +`)
)

type options struct {
	chunkSize int
	overlap   int
}

type Option func(*options)

func WithChunkSize(size int) Option {
	return func(o *options) { o.chunkSize = size }
}

func WithOverlap(overlap int) Option {
	return func(o *options) { o.overlap = overlap }
}

// Source describes where a text came from. URL is mandatory.
type Source struct {
	URL          string
	Title        string
	Type         entity.SourceType
	SectionIndex int
}

type Chunker struct {
	splitter *utils.RecursiveSplitter
}

// New fails when the overlap is not strictly smaller than the chunk size.
func New(opts ...Option) (*Chunker, error) {
	o := options{chunkSize: DefaultChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(&o)
	}
	splitter, err := utils.NewRecursiveSplitter(o.chunkSize, o.overlap)
	if err != nil {
		return nil, err
	}
	return &Chunker{splitter: splitter}, nil
}

// Chunk normalizes text, splits it and stamps every piece with stable ids and
// metadata. Empty text yields no chunks.
func (c *Chunker) Chunk(text string, src Source) ([]entity.Chunk, error) {
	if strings.TrimSpace(src.URL) == "" {
		return nil, ErrMissingURL
	}

	normalized := Normalize(text)
	if normalized == "" {
		return []entity.Chunk{}, nil
	}

	pieces := c.splitter.Split(normalized)
	documentId := DocumentId(src.URL)
	chunks := make([]entity.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = entity.Chunk{
			ChunkId:    ChunkId(src.URL, i),
			DocumentId: documentId,
			Text:       piece,
			Metadata: entity.ChunkMetadata{
				URL:          src.URL,
				Title:        src.Title,
				Type:         src.Type,
				DocumentId:   documentId,
				ChunkIndex:   i,
				TotalChunks:  len(pieces),
				CharCount:    utf8.RuneCountInString(piece),
				WordCount:    len(strings.Fields(piece)),
				SectionIndex: src.SectionIndex,
			},
		}
	}
	return chunks, nil
}

// Normalize collapses runs of blank lines to one blank line and runs of spaces
// to one space, then trims.
func Normalize(text string) string {
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func DocumentId(url string) string {
	return hashHex(url)
}

func ChunkId(url string, index int) string {
	return hashHex(url + "_" + strconv.Itoa(index))
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
