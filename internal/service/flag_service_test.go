package service

import (
	"context"
	"testing"
	"time"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlagger struct {
	params entity.FlagParams
	result *entity.FlagResult
}

func (f *fakeFlagger) Run(ctx context.Context, params entity.FlagParams) (*entity.FlagResult, error) {
	f.params = params
	return f.result, nil
}

func ptr[T any](v T) *T { return &v }

func newTestFlagService(t *testing.T) (IFlagService, IJobService, *fakeFlagger, unitofwork.RepositoryFactory) {
	t.Helper()
	jobs, factory := newTestJobService(t, &fakePublisher{})
	flagger := &fakeFlagger{result: &entity.FlagResult{FlaggedDocuments: []entity.FlaggedDocument{}}}
	svc := NewFlagService(jobs, flagger, factory, 0.3, logger.NewNopLogger())
	return svc, jobs, flagger, factory
}

func TestSubmitFlagging(t *testing.T) {
	tests := []struct {
		name          string
		req           dto.FlagDocumentsRequest
		wantErr       error
		wantThreshold float64
		wantChange    *string
	}{
		{
			name:          "default threshold",
			req:           dto.FlagDocumentsRequest{ChangedLaw: "Illinois Domestic Violence Act"},
			wantThreshold: 0.3,
		},
		{
			name:          "explicit threshold and change",
			req:           dto.FlagDocumentsRequest{ChangedLaw: " Act ", WhatChanged: ptr("Section 5 repealed"), SimilarityThreshold: ptr(0.55)},
			wantThreshold: 0.55,
			wantChange:    ptr("Section 5 repealed"),
		},
		{
			name:          "blank change is dropped",
			req:           dto.FlagDocumentsRequest{ChangedLaw: "Act", WhatChanged: ptr("   ")},
			wantThreshold: 0.3,
		},
		{
			name:          "threshold of one is allowed",
			req:           dto.FlagDocumentsRequest{ChangedLaw: "Act", SimilarityThreshold: ptr(1.0)},
			wantThreshold: 1.0,
		},
		{name: "blank law", req: dto.FlagDocumentsRequest{ChangedLaw: "  "}, wantErr: entity.ErrEmptyLaw},
		{name: "zero threshold", req: dto.FlagDocumentsRequest{ChangedLaw: "Act", SimilarityThreshold: ptr(0.0)}, wantErr: entity.ErrInvalidThreshold},
		{name: "threshold above one", req: dto.FlagDocumentsRequest{ChangedLaw: "Act", SimilarityThreshold: ptr(1.2)}, wantErr: entity.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, jobs, flagger, _ := newTestFlagService(t)

			res, err := svc.SubmitFlagging(context.Background(), &tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Searching and flagging documents...", res.Message)

			require.NoError(t, jobs.Run(context.Background(), res.JobId))
			assert.InDelta(t, tt.wantThreshold, flagger.params.SimilarityThreshold, 1e-9)
			assert.Equal(t, tt.wantChange, flagger.params.WhatChanged)

			job, err := jobs.GetJob(context.Background(), res.JobId)
			require.NoError(t, err)
			assert.Equal(t, entity.JobStatusCompleted, job.Status)
			_, ok := job.Result.(entity.FlagResult)
			assert.True(t, ok)
		})
	}
}

func seedFlags(t *testing.T, factory unitofwork.RepositoryFactory) {
	t.Helper()
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).FlagRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, f := range []entity.Flag{
		{DocumentId: "doc-a", FlaggedForLaw: "Act", Status: entity.FlagStatusFlagged, FlaggedAt: base},
		{DocumentId: "doc-b", FlaggedForLaw: "Act", Status: entity.FlagStatusReviewed, FlaggedAt: base.Add(time.Hour)},
		{DocumentId: "doc-c", FlaggedForLaw: "Act", Status: entity.FlagStatusFlagged, FlaggedAt: base.Add(2 * time.Hour)},
	} {
		flag := f
		require.NoError(t, repo.Upsert(ctx, &flag), i)
	}
}

func TestListFlags(t *testing.T) {
	svc, _, _, factory := newTestFlagService(t)
	seedFlags(t, factory)

	all, err := svc.ListFlags(context.Background(), &dto.ListFlagsRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, "doc-c", all.Flags[0].DocumentId)
	assert.Equal(t, "doc-a", all.Flags[2].DocumentId)
	assert.NotNil(t, all.Flags[0].ChangeSuggestions)

	flagged, err := svc.ListFlags(context.Background(), &dto.ListFlagsRequest{Status: "flagged"})
	require.NoError(t, err)
	assert.Equal(t, 2, flagged.Total)

	_, err = svc.ListFlags(context.Background(), &dto.ListFlagsRequest{Status: "archived"})
	assert.ErrorIs(t, err, entity.ErrInvalidStatus)
}

func TestUpdateFlagStatus(t *testing.T) {
	svc, _, _, factory := newTestFlagService(t)
	seedFlags(t, factory)

	res, err := svc.UpdateStatus(context.Background(), &dto.UpdateFlagStatusRequest{DocumentId: "doc-a", Status: "updated"})
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Status)
	assert.NotNil(t, res.ReviewedAt)

	_, err = svc.UpdateStatus(context.Background(), &dto.UpdateFlagStatusRequest{DocumentId: "missing", Status: "reviewed"})
	assert.ErrorIs(t, err, entity.ErrFlagNotFound)

	_, err = svc.UpdateStatus(context.Background(), &dto.UpdateFlagStatusRequest{DocumentId: "doc-a", Status: "done"})
	assert.ErrorIs(t, err, entity.ErrInvalidStatus)
}

func TestGetFlagAndUnflag(t *testing.T) {
	svc, _, _, factory := newTestFlagService(t)
	seedFlags(t, factory)

	flag, err := svc.GetFlag(context.Background(), "doc-b")
	require.NoError(t, err)
	assert.Equal(t, "reviewed", flag.Status)

	res, err := svc.Unflag(context.Background(), &dto.UnflagRequest{DocumentIds: []string{"doc-a", "doc-b", "missing"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Removed)

	_, err = svc.GetFlag(context.Background(), "doc-a")
	assert.ErrorIs(t, err, entity.ErrFlagNotFound)
}
