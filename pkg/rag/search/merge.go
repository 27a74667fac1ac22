package search

import (
	"math"
	"sort"

	"legal-indexer-be/internal/entity"
)

// merge unions both signals per document. Documents seen by the semantic
// signal come first, then keyword-only ones; the final sort is stable.
func merge(semantic, keyword *signalSet) []entity.CandidateDocument {
	order := append([]string{}, semantic.order...)
	for _, id := range keyword.order {
		if _, ok := semantic.byDoc[id]; !ok {
			order = append(order, id)
		}
	}

	candidates := make([]entity.CandidateDocument, 0, len(order))
	for _, id := range order {
		s, k := semantic.byDoc[id], keyword.byDoc[id]

		var semanticScore, keywordScore float64
		base := k
		if s != nil {
			semanticScore = s.score
			base = s
		}
		if k != nil {
			keywordScore = k.score
		}

		candidate := entity.CandidateDocument{
			DocumentId:    id,
			URL:           base.meta.URL,
			Title:         base.meta.Title,
			Type:          base.meta.Type,
			SemanticScore: semanticScore,
			KeywordScore:  keywordScore,
		}

		switch {
		case semanticScore > 0 && keywordScore > 0:
			candidate.Confidence = math.Max(semanticScore, keywordScore)
			candidate.MatchType = entity.MatchTypeSemanticKeyword
		case s != nil:
			candidate.Confidence = semanticScore
			candidate.MatchType = entity.MatchTypeSemantic
		default:
			candidate.Confidence = keywordScore
			candidate.MatchType = entity.MatchTypeKeyword
		}

		candidate.Chunks = dedupeChunks(s, k)
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

func dedupeChunks(signals ...*documentSignal) []entity.Chunk {
	seen := make(map[string]bool)
	var chunks []entity.Chunk
	for _, sig := range signals {
		if sig == nil {
			continue
		}
		for _, c := range sig.chunks {
			if seen[c.ChunkId] {
				continue
			}
			seen[c.ChunkId] = true
			chunks = append(chunks, c)
		}
	}
	return chunks
}
