package contract

import (
	"context"

	"legal-indexer-be/internal/entity"
)

type DocumentRepository interface {
	// Upsert replaces the record of a re-ingested URL.
	Upsert(ctx context.Context, document *entity.Document) error
	FindByDocumentId(ctx context.Context, documentId string) (*entity.Document, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}
