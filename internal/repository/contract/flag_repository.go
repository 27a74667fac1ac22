package contract

import (
	"context"
	"time"

	"legal-indexer-be/internal/entity"
)

type FlagRepository interface {
	// Upsert overwrites any existing flag for the same document.
	Upsert(ctx context.Context, flag *entity.Flag) error
	FindByDocumentId(ctx context.Context, documentId string) (*entity.Flag, error)
	// FindAll orders by flagged_at, newest first.
	FindAll(ctx context.Context, filter entity.FlagFilter) ([]*entity.Flag, error)
	UpdateStatus(ctx context.Context, documentId string, status entity.FlagStatus, reviewedAt time.Time) error
	DeleteByDocumentIds(ctx context.Context, documentIds []string) (int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}
