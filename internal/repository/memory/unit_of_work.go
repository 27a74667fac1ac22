package memory

import (
	"context"

	"legal-indexer-be/internal/repository/contract"
	"legal-indexer-be/internal/repository/unitofwork"
)

// RepositoryFactory hands out units of work over one shared Store.
// Begin/Commit/Rollback are no-ops: every write is applied immediately.
type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) DocumentRepository() contract.DocumentRepository {
	return NewDocumentRepository(u.store)
}

func (u *unitOfWork) ChunkRepository() contract.ChunkRepository {
	return NewChunkRepository(u.store)
}

func (u *unitOfWork) JobRepository() contract.JobRepository {
	return NewJobRepository(u.store)
}

func (u *unitOfWork) FlagRepository() contract.FlagRepository {
	return NewFlagRepository(u.store)
}
