package implementation

import (
	"context"
	"errors"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/mapper"
	"legal-indexer-be/internal/model"
	"legal-indexer-be/internal/repository/contract"
	"legal-indexer-be/internal/repository/specification"

	"gorm.io/gorm"
)

type JobRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JobMapper
}

func NewJobRepository(db *gorm.DB) contract.JobRepository {
	return &JobRepositoryImpl{
		db:     db,
		mapper: mapper.NewJobMapper(),
	}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *entity.Job) error {
	m, err := r.mapper.ToModel(job)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	job.CreatedAt = m.CreatedAt
	job.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *JobRepositoryImpl) FindById(ctx context.Context, id string) (*entity.Job, error) {
	var m model.Job
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.ByJobId{JobId: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *JobRepositoryImpl) FindByStatuses(ctx context.Context, statuses ...entity.JobStatus) ([]*entity.Job, error) {
	var models []*model.Job
	query := specification.ApplyAll(r.db.WithContext(ctx),
		specification.ByStatuses{Statuses: statusStrings(statuses)},
		specification.OrderBy{Field: "created_at"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	jobs := make([]*entity.Job, 0, len(models))
	for _, m := range models {
		j, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Transition is a conditional UPDATE, so concurrent writers cannot move a job out of a terminal state.
func (r *JobRepositoryImpl) Transition(ctx context.Context, id string, update entity.JobUpdate) (*entity.Job, error) {
	sources := entity.TransitionSources(update.Status)
	if len(sources) == 0 {
		return nil, entity.ErrJobTransition
	}

	updates := map[string]interface{}{
		"status":     string(update.Status),
		"updated_at": time.Now(),
	}
	if update.Result != nil {
		raw, err := mapper.EncodeJSON(update.Result)
		if err != nil {
			return nil, err
		}
		updates["result"] = raw
	}
	if update.Error != nil {
		updates["error"] = *update.Error
	}

	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Job{}),
		specification.ByJobId{JobId: id},
		specification.ByStatuses{Statuses: statusStrings(sources)},
	)
	res := query.Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindById(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, entity.ErrJobNotFound
		}
		return nil, entity.ErrJobTransition
	}

	return r.FindById(ctx, id)
}

func (r *JobRepositoryImpl) DeleteAll(ctx context.Context) error {
	return specification.All{}.Apply(r.db.WithContext(ctx)).Delete(&model.Job{}).Error
}

func statusStrings(statuses []entity.JobStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
