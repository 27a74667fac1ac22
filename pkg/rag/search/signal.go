package search

import "legal-indexer-be/internal/entity"

type documentSignal struct {
	score  float64
	chunks []entity.Chunk
	meta   entity.ChunkMetadata
}

// signalSet groups scored chunks by document, keeping the best score and the
// order in which documents were first seen.
type signalSet struct {
	order []string
	byDoc map[string]*documentSignal
}

func newSignalSet() *signalSet {
	return &signalSet{byDoc: make(map[string]*documentSignal)}
}

func (s *signalSet) add(chunk entity.Chunk, score float64) {
	doc, ok := s.byDoc[chunk.DocumentId]
	if !ok {
		doc = &documentSignal{meta: chunk.Metadata}
		s.byDoc[chunk.DocumentId] = doc
		s.order = append(s.order, chunk.DocumentId)
	}
	if score > doc.score {
		doc.score = score
	}
	doc.chunks = append(doc.chunks, chunk)
}
