package contract

import (
	"context"

	"legal-indexer-be/internal/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	FindById(ctx context.Context, id string) (*entity.Job, error)
	FindByStatuses(ctx context.Context, statuses ...entity.JobStatus) ([]*entity.Job, error)
	// Transition applies update only if the stored status is a legal source for update.Status.
	// It returns entity.ErrJobNotFound or entity.ErrJobTransition otherwise.
	Transition(ctx context.Context, id string, update entity.JobUpdate) (*entity.Job, error)
	DeleteAll(ctx context.Context) error
}
