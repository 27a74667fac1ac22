package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators goes from the coarsest boundary to the finest. The empty
// separator splits into single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

// RecursiveSplitter splits text at the coarsest separator that yields pieces
// under ChunkSize and merges neighbouring pieces back up to ChunkSize, carrying
// up to Overlap characters into the next chunk. Separators stay attached to the
// start of the piece that follows them. Lengths are counted in runes.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveSplitter(chunkSize, overlap int, separators ...string) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: separators,
	}, nil
}

func (s *RecursiveSplitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, finer)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most chunkSize runes. When a chunk is
// emitted, pieces are dropped from its front until at most overlap runes remain
// and the next piece fits.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var chunks, window []string
	total := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.chunkSize && len(window) > 0 {
			if chunk := joinTrimmed(window); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if chunk := joinTrimmed(window); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, part := range parts[1:] {
		pieces = append(pieces, separator+part)
	}
	return pieces
}

func joinTrimmed(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}
