package memory

import (
	"context"
	"sort"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/repository/contract"
)

type FlagRepository struct {
	store *Store
}

func NewFlagRepository(store *Store) contract.FlagRepository {
	return &FlagRepository{store: store}
}

func copyFlag(f entity.Flag) *entity.Flag {
	f.ChangeSuggestions = append([]entity.ChangeSuggestion{}, f.ChangeSuggestions...)
	return &f
}

func (r *FlagRepository) Upsert(ctx context.Context, flag *entity.Flag) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.flags[flag.DocumentId] = *copyFlag(*flag)
	return nil
}

func (r *FlagRepository) FindByDocumentId(ctx context.Context, documentId string) (*entity.Flag, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	f, ok := r.store.flags[documentId]
	if !ok {
		return nil, nil
	}
	return copyFlag(f), nil
}

func (r *FlagRepository) FindAll(ctx context.Context, filter entity.FlagFilter) ([]*entity.Flag, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	flags := []*entity.Flag{}
	for _, f := range r.store.flags {
		if filter.Status != nil && f.Status != *filter.Status {
			continue
		}
		flags = append(flags, copyFlag(f))
	}
	sort.Slice(flags, func(i, j int) bool {
		if !flags[i].FlaggedAt.Equal(flags[j].FlaggedAt) {
			return flags[i].FlaggedAt.After(flags[j].FlaggedAt)
		}
		return flags[i].DocumentId < flags[j].DocumentId
	})
	return flags, nil
}

func (r *FlagRepository) UpdateStatus(ctx context.Context, documentId string, status entity.FlagStatus, reviewedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.flags[documentId]
	if !ok {
		return entity.ErrFlagNotFound
	}
	f.Status = status
	f.ReviewedAt = &reviewedAt
	r.store.flags[documentId] = f
	return nil
}

func (r *FlagRepository) DeleteByDocumentIds(ctx context.Context, documentIds []string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for _, id := range documentIds {
		if _, ok := r.store.flags[id]; ok {
			delete(r.store.flags, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *FlagRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.flags)), nil
}

func (r *FlagRepository) DeleteAll(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.flags = make(map[string]entity.Flag)
	return nil
}
