package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/memory"
	"legal-indexer-be/internal/repository/unitofwork"
	"legal-indexer-be/pkg/chunker"
	"legal-indexer-be/pkg/embedding"
	"legal-indexer-be/pkg/fetcher"
	"legal-indexer-be/pkg/rag/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- ingestion ----

type fakeFetcher struct {
	docs map[string]*fetcher.Document
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetcher.Document, error) {
	doc, ok := f.docs[url]
	if !ok {
		return nil, errors.New("unexpected status 404")
	}
	return doc, nil
}

type fakeEmbedder struct {
	batches [][]string
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func webDoc(title, text string) *fetcher.Document {
	return &fetcher.Document{Text: text, Metadata: fetcher.Metadata{Title: title, Type: entity.SourceTypeWebpage}}
}

func newIngestor(t *testing.T, f DocumentFetcher, e embedding.EmbeddingProvider, factory unitofwork.RepositoryFactory, cfg IngestConfig) *Ingestor {
	c, err := chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(0))
	require.NoError(t, err)
	return NewIngestor(f, c, e, factory, cfg, logger.NewNopLogger())
}

func TestIngestIsolatesFailures(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	f := &fakeFetcher{docs: map[string]*fetcher.Document{
		"https://a.example/one": webDoc("One", "The tenant must give notice."),
		"https://a.example/two": webDoc("Two", "Landlords must return deposits."),
	}}
	ing := newIngestor(t, f, &fakeEmbedder{}, factory, IngestConfig{})

	result, err := ing.Run(context.Background(), []string{"https://a.example/one", "https://a.example/missing", "https://a.example/two"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.FailedURLs, 1)
	assert.Equal(t, "https://a.example/missing", result.FailedURLs[0].URL)
	assert.Contains(t, result.FailedURLs[0].Error, "404")

	uow := factory.NewUnitOfWork(context.Background())
	docs, err := uow.DocumentRepository().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), docs)
}

func TestIngestEmptyTextFails(t *testing.T) {
	f := &fakeFetcher{docs: map[string]*fetcher.Document{"https://a.example/blank": webDoc("Blank", "  \n\n ")}}
	ing := newIngestor(t, f, &fakeEmbedder{}, memory.NewRepositoryFactory(memory.NewStore()), IngestConfig{})

	result, err := ing.Run(context.Background(), []string{"https://a.example/blank"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)
	require.Len(t, result.FailedURLs, 1)
	assert.Equal(t, ErrNoExtractableText.Error(), result.FailedURLs[0].Error)
}

func TestIngestBatchesAndTruncatesEmbeddingInput(t *testing.T) {
	text := strings.Repeat("Each clause of the lease is binding. ", 5)
	f := &fakeFetcher{docs: map[string]*fetcher.Document{"https://a.example/lease": webDoc("Lease", text)}}
	e := &fakeEmbedder{}
	ing := newIngestor(t, f, e, memory.NewRepositoryFactory(memory.NewStore()), IngestConfig{EmbeddingBatchSize: 2, MaxEmbedChars: 10})

	doc, err := ing.IndexURL(context.Background(), "https://a.example/lease")
	require.NoError(t, err)

	assert.Equal(t, 5, doc.ChunkCount)
	require.Len(t, e.batches, 3)
	assert.Len(t, e.batches[0], 2)
	assert.Len(t, e.batches[2], 1)
	for _, batch := range e.batches {
		for _, in := range batch {
			assert.LessOrEqual(t, len([]rune(in)), 10)
		}
	}
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	f := &fakeFetcher{docs: map[string]*fetcher.Document{"https://a.example/one": webDoc("One", strings.Repeat("Tenants have rights. ", 4))}}
	ing := newIngestor(t, f, &fakeEmbedder{}, factory, IngestConfig{})

	first, err := ing.IndexURL(context.Background(), "https://a.example/one")
	require.NoError(t, err)
	second, err := ing.IndexURL(context.Background(), "https://a.example/one")
	require.NoError(t, err)
	assert.Equal(t, first.DocumentId, second.DocumentId)

	uow := factory.NewUnitOfWork(context.Background())
	chunks, err := uow.ChunkRepository().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(first.ChunkCount), chunks)
	docs, err := uow.DocumentRepository().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), docs)
}

func TestReindexShorterTextDropsStaleChunks(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	url := "https://a.example/lease"
	f := &fakeFetcher{docs: map[string]*fetcher.Document{url: webDoc("Lease", strings.Repeat("Each clause of the lease is binding. ", 5))}}
	ing := newIngestor(t, f, &fakeEmbedder{}, factory, IngestConfig{})

	long, err := ing.IndexURL(context.Background(), url)
	require.NoError(t, err)
	require.Greater(t, long.ChunkCount, 1)

	f.docs[url] = webDoc("Lease", "The lease was repealed.")
	short, err := ing.IndexURL(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 1, short.ChunkCount)

	chunks, err := factory.NewUnitOfWork(context.Background()).ChunkRepository().ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "repealed")
	assert.Equal(t, 1, chunks[0].Metadata.TotalChunks)
}

// ---- flagging ----

type fakeFinder struct {
	candidates []entity.CandidateDocument
	err        error
}

func (f *fakeFinder) FindCandidates(ctx context.Context, source search.ChunkSource, query string, threshold float64) ([]entity.CandidateDocument, error) {
	return f.candidates, f.err
}

type fakeClassifier struct {
	answers map[string]bool
	errs    map[string]error
	panics  map[string]bool
}

func (f *fakeClassifier) ClassifyReference(ctx context.Context, law, text string) (bool, error) {
	if f.panics[text] {
		panic("classifier exploded")
	}
	if err := f.errs[text]; err != nil {
		return false, err
	}
	return f.answers[text], nil
}

type fakeAnalyzer struct {
	calls int
	err   error
}

func (f *fakeAnalyzer) AnalyzeImpact(ctx context.Context, law, whatChanged, text string) (*entity.ImpactAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ImpactAnalysis{
		DocumentMentionsLaw: true,
		OverallImpact:       "notice period changed",
		Sections:            []entity.ChangeSuggestion{{SectionText: text, Issue: "outdated", SuggestedChange: "60 days", Confidence: 0.9}},
	}, nil
}

func candidate(id string, confidence float64) entity.CandidateDocument {
	return entity.CandidateDocument{
		DocumentId: id,
		URL:        "https://a.example/" + id,
		Title:      strings.ToUpper(id),
		Confidence: confidence,
		MatchType:  entity.MatchTypeSemantic,
		Chunks:     []entity.Chunk{{ChunkId: id + "-0", DocumentId: id, Text: "text-" + id}},
	}
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFlagPipeline(finder CandidateFinder, classifier ReferenceClassifier, analyzer ImpactAnalyzer, factory unitofwork.RepositoryFactory, opts ...FlagOption) *FlagPipeline {
	opts = append([]FlagOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewFlagPipeline(finder, classifier, analyzer, factory, FlagConfig{Concurrency: 1}, logger.NewNopLogger(), opts...)
}

func TestFlagPipelineStages(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.9), candidate("b", 0.8), candidate("c", 0.7)}}
	classifier := &fakeClassifier{
		answers: map[string]bool{"text-a": true, "text-b": false},
		errs:    map[string]error{"text-c": errors.New("inference unavailable")},
	}
	analyzer := &fakeAnalyzer{}

	result, err := newFlagPipeline(finder, classifier, analyzer, factory).Run(context.Background(), entity.FlagParams{
		ChangedLaw:          "Tenant Act",
		WhatChanged:         strPtr("notice raised to 60 days"),
		SimilarityThreshold: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFound)
	assert.Equal(t, 2, result.Validated, "classifier failure keeps the candidate")
	assert.Equal(t, 2, result.Flagged)
	assert.Equal(t, 2, result.Analyzed)
	assert.Empty(t, result.Errors)
	require.Len(t, result.FlaggedDocuments, 2)
	assert.Equal(t, "a", result.FlaggedDocuments[0].DocumentId)
	assert.Equal(t, "c", result.FlaggedDocuments[1].DocumentId)
	assert.Equal(t, 1, result.FlaggedDocuments[0].SuggestionsCount)
	assert.Equal(t, 2, analyzer.calls)

	flag, err := factory.NewUnitOfWork(context.Background()).FlagRepository().FindByDocumentId(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, entity.FlagStatusFlagged, flag.Status)
	assert.Equal(t, "Tenant Act", flag.FlaggedForLaw)
	assert.Equal(t, fixedNow, flag.FlaggedAt)
	assert.Equal(t, "notice period changed", flag.ImpactSummary)
	assert.InDelta(t, 0.9, flag.Confidence, 1e-9)
}

func TestFlagPipelineWithoutChangeSkipsAnalysis(t *testing.T) {
	finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.9)}}
	analyzer := &fakeAnalyzer{}

	result, err := newFlagPipeline(finder, &fakeClassifier{answers: map[string]bool{"text-a": true}}, analyzer,
		memory.NewRepositoryFactory(memory.NewStore())).Run(context.Background(), entity.FlagParams{ChangedLaw: "Tenant Act", SimilarityThreshold: 0.3})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 0, result.Analyzed)
	assert.Zero(t, analyzer.calls)
	assert.Equal(t, 0, result.FlaggedDocuments[0].SuggestionsCount)
}

func TestFlagPipelineAnalysisFailureIsSoft(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.9)}}

	result, err := newFlagPipeline(finder, &fakeClassifier{answers: map[string]bool{"text-a": true}},
		&fakeAnalyzer{err: errors.New("malformed json")}, factory).Run(context.Background(), entity.FlagParams{
		ChangedLaw: "Tenant Act", WhatChanged: strPtr("changed"), SimilarityThreshold: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Flagged)
	assert.Equal(t, 1, result.Analyzed)

	flag, err := factory.NewUnitOfWork(context.Background()).FlagRepository().FindByDocumentId(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, flag.ChangeSuggestions)
	assert.Equal(t, "Error during analysis: malformed json", flag.ImpactSummary)
}

func TestFlagPipelineIsolatesPanics(t *testing.T) {
	finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.9), candidate("b", 0.8)}}
	classifier := &fakeClassifier{answers: map[string]bool{"text-b": true}, panics: map[string]bool{"text-a": true}}

	result, err := newFlagPipeline(finder, classifier, &fakeAnalyzer{}, memory.NewRepositoryFactory(memory.NewStore())).
		Run(context.Background(), entity.FlagParams{ChangedLaw: "Tenant Act", SimilarityThreshold: 0.3})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Flagged)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "a", result.Errors[0].DocumentId)
	assert.Equal(t, StageValidate, result.Errors[0].Stage)
	assert.Contains(t, result.Errors[0].Error, "classifier exploded")
}

func TestFlagPipelineCustomValidationPolicy(t *testing.T) {
	finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.9)}}
	classifier := &fakeClassifier{errs: map[string]error{"text-a": errors.New("down")}}
	dropOnError := WithValidationErrorPolicy(func(entity.CandidateDocument, error) bool { return false })

	result, err := newFlagPipeline(finder, classifier, &fakeAnalyzer{}, memory.NewRepositoryFactory(memory.NewStore()), dropOnError).
		Run(context.Background(), entity.FlagParams{ChangedLaw: "Tenant Act", SimilarityThreshold: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Validated)
	assert.Equal(t, 0, result.Flagged)
}

func TestFlagPipelineReflagOverwrites(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	classifier := &fakeClassifier{answers: map[string]bool{"text-a": true}}

	for _, law := range []string{"Old Act", "New Act"} {
		finder := &fakeFinder{candidates: []entity.CandidateDocument{candidate("a", 0.5)}}
		_, err := newFlagPipeline(finder, classifier, &fakeAnalyzer{}, factory).
			Run(context.Background(), entity.FlagParams{ChangedLaw: law, SimilarityThreshold: 0.3})
		require.NoError(t, err)
	}

	repo := factory.NewUnitOfWork(context.Background()).FlagRepository()
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	flag, err := repo.FindByDocumentId(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "New Act", flag.FlaggedForLaw)
}

func TestFlagPipelineDiscoverFailureFailsRun(t *testing.T) {
	finder := &fakeFinder{err: errors.New("vector store offline")}
	_, err := newFlagPipeline(finder, &fakeClassifier{}, &fakeAnalyzer{}, memory.NewRepositoryFactory(memory.NewStore())).
		Run(context.Background(), entity.FlagParams{ChangedLaw: "Tenant Act", SimilarityThreshold: 0.3})
	assert.ErrorContains(t, err, "vector store offline")
}

func TestCombineChunks(t *testing.T) {
	chunks := []entity.Chunk{
		{Text: "s1c0", Metadata: entity.ChunkMetadata{SectionIndex: 1, ChunkIndex: 0}},
		{Text: "s0c1", Metadata: entity.ChunkMetadata{ChunkIndex: 1}},
		{Text: "s0c0", Metadata: entity.ChunkMetadata{ChunkIndex: 0}},
	}
	assert.Equal(t, "s0c0\n\ns0c1\n\ns1c0", CombineChunks(chunks))
	assert.Equal(t, "s1c0", chunks[0].Text, "input order untouched")
}
