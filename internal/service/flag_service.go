package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legal-indexer-be/internal/constant"
	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/unitofwork"
)

// DocumentFlagger runs discover, validate, analyze and persist for one law change.
type DocumentFlagger interface {
	Run(ctx context.Context, params entity.FlagParams) (*entity.FlagResult, error)
}

type IFlagService interface {
	SubmitFlagging(ctx context.Context, req *dto.FlagDocumentsRequest) (*dto.JobSubmittedResponse, error)
	ListFlags(ctx context.Context, req *dto.ListFlagsRequest) (*dto.ListFlagsResponse, error)
	GetFlag(ctx context.Context, documentId string) (*dto.FlagResponse, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateFlagStatusRequest) (*dto.FlagResponse, error)
	Unflag(ctx context.Context, req *dto.UnflagRequest) (*dto.UnflagResponse, error)
}

type flagService struct {
	jobService       IJobService
	flagger          DocumentFlagger
	repoFactory      unitofwork.RepositoryFactory
	defaultThreshold float64
	logger           logger.ILogger
	now              func() time.Time
}

func NewFlagService(
	jobService IJobService,
	flagger DocumentFlagger,
	repoFactory unitofwork.RepositoryFactory,
	defaultThreshold float64,
	logger logger.ILogger,
) IFlagService {
	s := &flagService{
		jobService:       jobService,
		flagger:          flagger,
		repoFactory:      repoFactory,
		defaultThreshold: defaultThreshold,
		logger:           logger,
		now:              time.Now,
	}
	jobService.RegisterHandler(entity.JobTypeFlagDocuments, s.runFlagging)
	return s
}

func (s *flagService) SubmitFlagging(ctx context.Context, req *dto.FlagDocumentsRequest) (*dto.JobSubmittedResponse, error) {
	law := strings.TrimSpace(req.ChangedLaw)
	if law == "" {
		return nil, entity.ErrEmptyLaw
	}

	threshold := s.defaultThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}
	if threshold <= 0 || threshold > 1 {
		return nil, entity.ErrInvalidThreshold
	}

	var whatChanged *string
	if req.WhatChanged != nil {
		if w := strings.TrimSpace(*req.WhatChanged); w != "" {
			whatChanged = &w
		}
	}

	job, err := s.jobService.Submit(ctx, entity.FlagParams{
		ChangedLaw:          law,
		WhatChanged:         whatChanged,
		SimilarityThreshold: threshold,
	})
	if err != nil {
		return nil, err
	}

	return &dto.JobSubmittedResponse{
		JobId:   job.Id,
		Status:  string(job.Status),
		Message: constant.JobMessageFlag,
	}, nil
}

func (s *flagService) runFlagging(ctx context.Context, job *entity.Job) (entity.JobResult, error) {
	params, ok := job.Params.(entity.FlagParams)
	if !ok {
		return nil, fmt.Errorf("flag job %s has params of type %T", job.Id, job.Params)
	}

	result, err := s.flagger.Run(ctx, params)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

func (s *flagService) ListFlags(ctx context.Context, req *dto.ListFlagsRequest) (*dto.ListFlagsResponse, error) {
	filter := entity.FlagFilter{}
	if req.Status != "" {
		status := entity.FlagStatus(req.Status)
		if !status.Valid() {
			return nil, entity.ErrInvalidStatus
		}
		filter.Status = &status
	}

	uow := s.repoFactory.NewUnitOfWork(ctx)
	flags, err := uow.FlagRepository().FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	res := make([]dto.FlagResponse, 0, len(flags))
	for _, f := range flags {
		res = append(res, *toFlagResponse(f))
	}
	return &dto.ListFlagsResponse{Flags: res, Total: len(res)}, nil
}

func (s *flagService) GetFlag(ctx context.Context, documentId string) (*dto.FlagResponse, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)
	flag, err := uow.FlagRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("find flag: %w", err)
	}
	if flag == nil {
		return nil, entity.ErrFlagNotFound
	}
	return toFlagResponse(flag), nil
}

func (s *flagService) UpdateStatus(ctx context.Context, req *dto.UpdateFlagStatusRequest) (*dto.FlagResponse, error) {
	status := entity.FlagStatus(req.Status)
	if !status.Valid() {
		return nil, entity.ErrInvalidStatus
	}

	uow := s.repoFactory.NewUnitOfWork(ctx)
	if err := uow.FlagRepository().UpdateStatus(ctx, req.DocumentId, status, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info("FlagService", "Flag status updated", map[string]interface{}{
		"document_id": req.DocumentId,
		"status":      status,
	})
	return s.GetFlag(ctx, req.DocumentId)
}

func (s *flagService) Unflag(ctx context.Context, req *dto.UnflagRequest) (*dto.UnflagResponse, error) {
	uow := s.repoFactory.NewUnitOfWork(ctx)
	removed, err := uow.FlagRepository().DeleteByDocumentIds(ctx, req.DocumentIds)
	if err != nil {
		return nil, fmt.Errorf("unflag: %w", err)
	}

	s.logger.Info("FlagService", "Documents unflagged", map[string]interface{}{
		"requested": len(req.DocumentIds),
		"removed":   removed,
	})
	return &dto.UnflagResponse{Removed: removed}, nil
}

func toFlagResponse(f *entity.Flag) *dto.FlagResponse {
	suggestions := f.ChangeSuggestions
	if suggestions == nil {
		suggestions = []entity.ChangeSuggestion{}
	}
	return &dto.FlagResponse{
		DocumentId:        f.DocumentId,
		URL:               f.URL,
		Title:             f.Title,
		FlaggedForLaw:     f.FlaggedForLaw,
		WhatChanged:       f.WhatChanged,
		Confidence:        f.Confidence,
		MatchType:         string(f.MatchType),
		Status:            string(f.Status),
		FlaggedAt:         f.FlaggedAt,
		ReviewedAt:        f.ReviewedAt,
		ChangeSuggestions: suggestions,
		ImpactSummary:     f.ImpactSummary,
	}
}
