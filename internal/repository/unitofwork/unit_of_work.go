package unitofwork

import (
	"context"

	"legal-indexer-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	ChunkRepository() contract.ChunkRepository
	JobRepository() contract.JobRepository
	FlagRepository() contract.FlagRepository
}
