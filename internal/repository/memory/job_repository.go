package memory

import (
	"context"
	"sort"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/repository/contract"
)

type JobRepository struct {
	store *Store
	now   func() time.Time
}

func NewJobRepository(store *Store) contract.JobRepository {
	return &JobRepository{store: store, now: time.Now}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := r.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	r.store.jobs[job.Id] = *job
	return nil
}

func (r *JobRepository) FindById(ctx context.Context, id string) (*entity.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (r *JobRepository) FindByStatuses(ctx context.Context, statuses ...entity.JobStatus) ([]*entity.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[entity.JobStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	jobs := []*entity.Job{}
	for _, j := range r.store.jobs {
		if wanted[j.Status] {
			job := j
			jobs = append(jobs, &job)
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })
	return jobs, nil
}

func (r *JobRepository) Transition(ctx context.Context, id string, update entity.JobUpdate) (*entity.Job, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	j, ok := r.store.jobs[id]
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	if !entity.CanTransition(j.Status, update.Status) {
		return nil, entity.ErrJobTransition
	}

	j.Status = update.Status
	if update.Result != nil {
		j.Result = update.Result
	}
	if update.Error != nil {
		msg := *update.Error
		j.Error = &msg
	}
	j.UpdatedAt = r.now()
	r.store.jobs[id] = j

	out := j
	return &out, nil
}

func (r *JobRepository) DeleteAll(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.jobs = make(map[string]entity.Job)
	return nil
}
