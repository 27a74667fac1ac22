package memory

import (
	"sync"

	"legal-indexer-be/internal/entity"
)

// Store holds every collection of the in-memory backend. Repositories created
// from the same Store share state.
type Store struct {
	mu        sync.RWMutex
	documents map[string]entity.Document
	chunks    map[string]entity.ChunkEmbedding
	jobs      map[string]entity.Job
	flags     map[string]entity.Flag
}

func NewStore() *Store {
	return &Store{
		documents: make(map[string]entity.Document),
		chunks:    make(map[string]entity.ChunkEmbedding),
		jobs:      make(map[string]entity.Job),
		flags:     make(map[string]entity.Flag),
	}
}
