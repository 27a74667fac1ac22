package service

import (
	"context"
	"fmt"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/unitofwork"
)

const (
	defaultLogLimit = 50
	healthyStatus   = "healthy"
)

type ISystemService interface {
	Reset(ctx context.Context) error
	Health(ctx context.Context) (*dto.HealthResponse, error)
	GetLogs(ctx context.Context, req *dto.LogsRequest) ([]dto.LogListResponse, error)
}

type systemService struct {
	repoFactory unitofwork.RepositoryFactory
	jobService  IJobService
	logger      logger.ILogger
}

func NewSystemService(repoFactory unitofwork.RepositoryFactory, jobService IJobService, logger logger.ILogger) ISystemService {
	return &systemService{
		repoFactory: repoFactory,
		jobService:  jobService,
		logger:      logger,
	}
}

// Reset wipes chunks, documents, flags and jobs in one unit of work.
func (s *systemService) Reset(ctx context.Context) error {
	err := unitofwork.InTransaction(ctx, s.repoFactory, func(uow unitofwork.UnitOfWork) error {
		steps := []struct {
			name string
			run  func(context.Context) error
		}{
			{"chunks", uow.ChunkRepository().DeleteAll},
			{"documents", uow.DocumentRepository().DeleteAll},
			{"flags", uow.FlagRepository().DeleteAll},
			{"jobs", uow.JobRepository().DeleteAll},
		}
		for _, step := range steps {
			if err := step.run(ctx); err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.jobService.FlushCache()

	s.logger.Warn("SystemService", "All data deleted", nil)
	return nil
}

func (s *systemService) Health(ctx context.Context) (*dto.HealthResponse, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)

	chunks, err := uow.ChunkRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	documents, err := uow.DocumentRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	flagged, err := uow.FlagRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count flags: %w", err)
	}

	return &dto.HealthResponse{
		Status:         healthyStatus,
		TotalChunks:    chunks,
		TotalDocuments: documents,
		TotalFlagged:   flagged,
	}, nil
}

func (s *systemService) GetLogs(ctx context.Context, req *dto.LogsRequest) ([]dto.LogListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}

	entries, err := s.logger.GetLogs(req.Level, limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}

	res := make([]dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.LogListResponse{
			Id:        e.Id,
			Timestamp: e.Timestamp,
			Level:     e.Level,
			Module:    e.Module,
			Message:   e.Message,
			Details:   e.Details,
		})
	}
	return res, nil
}
