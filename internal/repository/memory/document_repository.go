package memory

import (
	"context"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/repository/contract"
)

type DocumentRepository struct {
	store *Store
}

func NewDocumentRepository(store *Store) contract.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Upsert(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.documents[document.DocumentId] = *document
	return nil
}

func (r *DocumentRepository) FindByDocumentId(ctx context.Context, documentId string) (*entity.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	d, ok := r.store.documents[documentId]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.documents)), nil
}

func (r *DocumentRepository) DeleteAll(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.documents = make(map[string]entity.Document)
	return nil
}
