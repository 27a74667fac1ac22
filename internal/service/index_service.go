package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"legal-indexer-be/internal/constant"
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
)

// BulkIndexer ingests a list of URLs with per-URL failure isolation.
type BulkIndexer interface {
	Run(ctx context.Context, urls []string) (*entity.BulkIndexResult, error)
}

type IIndexService interface {
	SubmitBulkIndex(ctx context.Context, req *dto.BulkIndexRequest) (*dto.JobSubmittedResponse, error)
}

type indexService struct {
	jobService IJobService
	indexer    BulkIndexer
	logger     logger.ILogger
}

func NewIndexService(jobService IJobService, indexer BulkIndexer, logger logger.ILogger) IIndexService {
	s := &indexService{
		jobService: jobService,
		indexer:    indexer,
		logger:     logger,
	}
	jobService.RegisterHandler(entity.JobTypeBulkIndex, s.runBulkIndex)
	return s
}

func (s *indexService) SubmitBulkIndex(ctx context.Context, req *dto.BulkIndexRequest) (*dto.JobSubmittedResponse, error) {
	if len(req.URLs) == 0 {
		return nil, entity.ErrNoURLs
	}

	urls := make([]string, 0, len(req.URLs))
	for _, raw := range req.URLs {
		u := strings.TrimSpace(raw)
		if err := ValidateURL(u); err != nil {
			return nil, fmt.Errorf("%w: %q", err, raw)
		}
		urls = append(urls, u)
	}

	job, err := s.jobService.Submit(ctx, entity.BulkIndexParams{URLs: urls})
	if err != nil {
		return nil, err
	}

	return &dto.JobSubmittedResponse{
		JobId:   job.Id,
		Status:  string(job.Status),
		Message: fmt.Sprintf(constant.JobMessageBulkIndex, len(urls)),
	}, nil
}

func (s *indexService) runBulkIndex(ctx context.Context, job *entity.Job) (entity.JobResult, error) {
	params, ok := job.Params.(entity.BulkIndexParams)
	if !ok {
		return nil, fmt.Errorf("bulk index job %s has params of type %T", job.Id, job.Params)
	}

	result, err := s.indexer.Run(ctx, params.URLs)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return entity.ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return entity.ErrInvalidURL
	}
	return nil
}
