package memory

import (
	"context"
	"testing"

	"legal-indexer-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTransitionsAreGuarded(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(NewStore())
	require.NoError(t, repo.Create(ctx, &entity.Job{Id: "j1", Type: entity.JobTypeBulkIndex, Status: entity.JobStatusPending}))

	_, err := repo.Transition(ctx, "j1", entity.JobUpdate{Status: entity.JobStatusCompleted})
	assert.ErrorIs(t, err, entity.ErrJobTransition, "pending cannot complete without processing")

	job, err := repo.Transition(ctx, "j1", entity.JobUpdate{Status: entity.JobStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusProcessing, job.Status)

	result := entity.BulkIndexResult{Indexed: 1}
	job, err = repo.Transition(ctx, "j1", entity.JobUpdate{Status: entity.JobStatusCompleted, Result: result})
	require.NoError(t, err)
	assert.Equal(t, result, job.Result)

	msg := "late failure"
	_, err = repo.Transition(ctx, "j1", entity.JobUpdate{Status: entity.JobStatusFailed, Error: &msg})
	assert.ErrorIs(t, err, entity.ErrJobTransition, "terminal jobs are immutable")

	stored, err := repo.FindById(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, stored.Status)
	assert.Nil(t, stored.Error)

	_, err = repo.Transition(ctx, "missing", entity.JobUpdate{Status: entity.JobStatusProcessing})
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestFindByStatuses(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(NewStore())
	require.NoError(t, repo.Create(ctx, &entity.Job{Id: "a", Status: entity.JobStatusPending}))
	require.NoError(t, repo.Create(ctx, &entity.Job{Id: "b", Status: entity.JobStatusProcessing}))
	require.NoError(t, repo.Create(ctx, &entity.Job{Id: "c", Status: entity.JobStatusCompleted}))

	jobs, err := repo.FindByStatuses(ctx, entity.JobStatusPending, entity.JobStatusProcessing)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}
