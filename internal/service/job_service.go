package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"legal-indexer-be/internal/constant"
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/memory"
	"legal-indexer-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const jobModule = "JobService"

// JobHandler does the work of one job type and returns its result variant.
type JobHandler func(ctx context.Context, job *entity.Job) (entity.JobResult, error)

// JobObserver is told about every persisted job state, including the initial pending one.
type JobObserver interface {
	OnJobUpdate(ctx context.Context, job *entity.Job)
}

type IJobService interface {
	RegisterHandler(jobType entity.JobType, handler JobHandler)
	AddObserver(observer JobObserver)
	Submit(ctx context.Context, params entity.JobParams) (*entity.Job, error)
	GetJob(ctx context.Context, jobId string) (*entity.Job, error)
	Run(ctx context.Context, jobId string) error
	RecoverOrphaned(ctx context.Context) (int, error)
	WaitForJob(ctx context.Context, jobId string, interval, maxWait time.Duration) (*entity.Job, error)
	FlushCache()
}

type jobService struct {
	repoFactory unitofwork.RepositoryFactory
	publisher   message.Publisher
	topicName   string
	cache       *memory.JobCache
	logger      logger.ILogger
	now         func() time.Time

	mu        sync.RWMutex
	handlers  map[entity.JobType]JobHandler
	observers []JobObserver
}

func NewJobService(
	repoFactory unitofwork.RepositoryFactory,
	publisher message.Publisher,
	topicName string,
	cache *memory.JobCache,
	logger logger.ILogger,
) IJobService {
	return &jobService{
		repoFactory: repoFactory,
		publisher:   publisher,
		topicName:   topicName,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		handlers:    make(map[entity.JobType]JobHandler),
	}
}

func (s *jobService) RegisterHandler(jobType entity.JobType, handler JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

func (s *jobService) AddObserver(observer JobObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *jobService) handler(jobType entity.JobType) (JobHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[jobType]
	return h, ok
}

// Submit persists a pending job and hands it to the consumer. It never runs job work itself.
func (s *jobService) Submit(ctx context.Context, params entity.JobParams) (*entity.Job, error) {
	if params == nil {
		return nil, entity.ErrUnknownJobType
	}
	if _, ok := s.handler(params.JobType()); !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownJobType, params.JobType())
	}

	now := s.now()
	job := &entity.Job{
		Id:        uuid.NewString(),
		Type:      params.JobType(),
		Status:    entity.JobStatusPending,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.repoFactory.NewUnitOfWork(ctx)
	if err := uow.JobRepository().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.cache.Save(job)
	s.notify(ctx, job)

	payload, err := json.Marshal(dto.DispatchJobMessage{JobId: job.Id})
	if err == nil {
		err = s.publisher.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload))
	}
	if err != nil {
		s.logger.Error(jobModule, "Failed to dispatch job", map[string]interface{}{
			"job_id": job.Id,
			"error":  err.Error(),
		})
		s.fail(context.WithoutCancel(ctx), job.Id, fmt.Sprintf("dispatch failed: %v", err))
		return nil, fmt.Errorf("dispatch job %s: %w", job.Id, err)
	}

	s.logger.Info(jobModule, "Job submitted", map[string]interface{}{
		"job_id": job.Id,
		"type":   job.Type,
	})
	return job, nil
}

func (s *jobService) GetJob(ctx context.Context, jobId string) (*entity.Job, error) {
	if job, ok := s.cache.Get(jobId); ok {
		return job, nil
	}

	uow := s.repoFactory.NewUnitOfWork(ctx)
	job, err := uow.JobRepository().FindById(ctx, jobId)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		return nil, entity.ErrJobNotFound
	}
	// Only terminal snapshots are immutable. Caching a live one here could
	// overwrite a newer snapshot a transition just saved, or pin a job that
	// another instance is running.
	if job.Status.IsTerminal() {
		s.cache.Save(job)
	}
	return job, nil
}

// Run drives one job from pending to a terminal state. Once the job is
// processing it always ends completed or failed, even if the handler panics.
func (s *jobService) Run(ctx context.Context, jobId string) error {
	job, err := s.transition(ctx, jobId, entity.JobUpdate{Status: entity.JobStatusProcessing})
	if err != nil {
		return fmt.Errorf("start job %s: %w", jobId, err)
	}

	s.logger.Info(jobModule, "Job started", map[string]interface{}{
		"job_id": job.Id,
		"type":   job.Type,
	})

	result, runErr := s.execute(ctx, job)

	// Terminal writes must land even if the caller's context is gone.
	finalCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		s.logger.Error(jobModule, "Job failed", map[string]interface{}{
			"job_id": job.Id,
			"error":  runErr.Error(),
		})
		s.fail(finalCtx, job.Id, runErr.Error())
		return nil
	}

	if _, err := s.transition(finalCtx, job.Id, entity.JobUpdate{
		Status: entity.JobStatusCompleted,
		Result: result,
	}); err != nil {
		s.logger.Error(jobModule, "Failed to store job result", map[string]interface{}{
			"job_id": job.Id,
			"error":  err.Error(),
		})
		s.fail(finalCtx, job.Id, fmt.Sprintf("store result: %v", err))
		return nil
	}

	s.logger.Info(jobModule, "Job completed", map[string]interface{}{
		"job_id": job.Id,
		"type":   job.Type,
	})
	return nil
}

func (s *jobService) execute(ctx context.Context, job *entity.Job) (result entity.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(jobModule, "Job panicked", map[string]interface{}{
				"job_id": job.Id,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			})
			result = nil
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	handler, ok := s.handler(job.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownJobType, job.Type)
	}

	result, err = handler(ctx, job)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("job handler returned no result")
	}
	return result, nil
}

func (s *jobService) fail(ctx context.Context, jobId, message string) {
	if _, err := s.transition(ctx, jobId, entity.JobUpdate{
		Status: entity.JobStatusFailed,
		Error:  &message,
	}); err != nil {
		s.logger.Error(jobModule, "Failed to mark job as failed", map[string]interface{}{
			"job_id": jobId,
			"error":  err.Error(),
		})
	}
}

func (s *jobService) transition(ctx context.Context, jobId string, update entity.JobUpdate) (*entity.Job, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)
	job, err := uow.JobRepository().Transition(ctx, jobId, update)
	if err != nil {
		s.cache.Delete(jobId)
		return nil, err
	}
	s.cache.Save(job)
	s.notify(ctx, job)
	return job, nil
}

// RecoverOrphaned fails jobs a previous process left pending or processing.
// Dispatch is in-process, so nothing will ever pick them up again.
func (s *jobService) RecoverOrphaned(ctx context.Context) (int, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)
	jobs, err := uow.JobRepository().FindByStatuses(ctx, entity.JobStatusPending, entity.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("find unfinished jobs: %w", err)
	}

	recovered := 0
	for _, job := range jobs {
		message := constant.JobInterruptedError
		if _, err := s.transition(ctx, job.Id, entity.JobUpdate{
			Status: entity.JobStatusFailed,
			Error:  &message,
		}); err != nil {
			s.logger.Warn(jobModule, "Could not recover job", map[string]interface{}{
				"job_id": job.Id,
				"error":  err.Error(),
			})
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Warn(jobModule, "Marked interrupted jobs as failed", map[string]interface{}{
			"count": recovered,
		})
	}
	return recovered, nil
}

// WaitForJob polls until the job is terminal or maxWait elapses, returning the
// last snapshot seen. A zero maxWait waits until ctx is done.
func (s *jobService) WaitForJob(ctx context.Context, jobId string, interval, maxWait time.Duration) (*entity.Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	if maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := s.GetJob(ctx, jobId)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return job, nil
			}
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *jobService) FlushCache() {
	s.cache.Flush()
}

func (s *jobService) notify(ctx context.Context, job *entity.Job) {
	s.mu.RLock()
	observers := make([]JobObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		s.notifyOne(ctx, o, job)
	}
}

func (s *jobService) notifyOne(ctx context.Context, o JobObserver, job *entity.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(jobModule, "Job observer panicked", map[string]interface{}{
				"job_id": job.Id,
				"panic":  fmt.Sprint(r),
			})
		}
	}()
	snapshot := *job
	o.OnJobUpdate(ctx, &snapshot)
}
