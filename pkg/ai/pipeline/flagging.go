package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/unitofwork"
	"legal-indexer-be/pkg/rag/search"
	"legal-indexer-be/pkg/workerpool"

	"go.opentelemetry.io/otel/attribute"
)

const flagModule = "FlagPipeline"

const (
	StageValidate = "validate"
	StageAnalyze  = "analyze"
	StagePersist  = "persist"
)

type CandidateFinder interface {
	FindCandidates(ctx context.Context, source search.ChunkSource, query string, threshold float64) ([]entity.CandidateDocument, error)
}

type ReferenceClassifier interface {
	ClassifyReference(ctx context.Context, law, text string) (bool, error)
}

type ImpactAnalyzer interface {
	AnalyzeImpact(ctx context.Context, law, whatChanged, text string) (*entity.ImpactAnalysis, error)
}

// ValidationErrorPolicy decides whether a candidate survives a classifier failure.
type ValidationErrorPolicy func(candidate entity.CandidateDocument, err error) bool

// AnalysisErrorPolicy supplies the analysis used when the analyzer fails.
type AnalysisErrorPolicy func(candidate entity.CandidateDocument, err error) *entity.ImpactAnalysis

// KeepOnValidationError fails open: a document that might be affected is
// never dropped because the classifier was unavailable.
func KeepOnValidationError(entity.CandidateDocument, error) bool {
	return true
}

// EmptyAnalysisOnError fails soft: no suggestions, with the cause in the summary.
func EmptyAnalysisOnError(_ entity.CandidateDocument, err error) *entity.ImpactAnalysis {
	return &entity.ImpactAnalysis{
		OverallImpact: "Error during analysis: " + err.Error(),
		Sections:      []entity.ChangeSuggestion{},
	}
}

type FlagConfig struct {
	Concurrency int
}

type FlagOption func(*FlagPipeline)

func WithValidationErrorPolicy(policy ValidationErrorPolicy) FlagOption {
	return func(p *FlagPipeline) { p.onValidationError = policy }
}

func WithAnalysisErrorPolicy(policy AnalysisErrorPolicy) FlagOption {
	return func(p *FlagPipeline) { p.onAnalysisError = policy }
}

func WithClock(now func() time.Time) FlagOption {
	return func(p *FlagPipeline) { p.now = now }
}

// FlagPipeline runs discover, validate, then analyze and persist for a law
// change. Candidate failures are isolated; only discovery failures fail the run.
type FlagPipeline struct {
	finder            CandidateFinder
	classifier        ReferenceClassifier
	analyzer          ImpactAnalyzer
	repoFactory       unitofwork.RepositoryFactory
	config            FlagConfig
	onValidationError ValidationErrorPolicy
	onAnalysisError   AnalysisErrorPolicy
	now               func() time.Time
	logger            logger.ILogger
}

func NewFlagPipeline(
	finder CandidateFinder,
	classifier ReferenceClassifier,
	analyzer ImpactAnalyzer,
	repoFactory unitofwork.RepositoryFactory,
	config FlagConfig,
	logger logger.ILogger,
	opts ...FlagOption,
) *FlagPipeline {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	p := &FlagPipeline{
		finder:            finder,
		classifier:        classifier,
		analyzer:          analyzer,
		repoFactory:       repoFactory,
		config:            config,
		onValidationError: KeepOnValidationError,
		onAnalysisError:   EmptyAnalysisOnError,
		now:               func() time.Time { return time.Now().UTC() },
		logger:            logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type flagOutcome struct {
	summary *entity.FlaggedDocument
	err     *entity.CandidateError
}

func (p *FlagPipeline) Run(ctx context.Context, params entity.FlagParams) (*entity.FlagResult, error) {
	law := params.ChangedLaw
	whatChanged := ""
	if params.WhatChanged != nil {
		whatChanged = strings.TrimSpace(*params.WhatChanged)
	}

	candidates, err := p.discover(ctx, law, params.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	result := &entity.FlagResult{
		TotalFound:       len(candidates),
		FlaggedDocuments: []entity.FlaggedDocument{},
	}

	validated, validationErrs, err := p.validate(ctx, law, candidates)
	if err != nil {
		return nil, err
	}
	result.Validated = len(validated)
	result.Errors = append(result.Errors, validationErrs...)

	outcomes := make([]flagOutcome, len(validated))
	poolErr := workerpool.ForEach(ctx, validated, p.config.Concurrency, func(ctx context.Context, i int, c entity.CandidateDocument) {
		outcomes[i] = p.flag(ctx, law, params.WhatChanged, whatChanged, c)
	})
	if poolErr != nil {
		return nil, poolErr
	}

	for _, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, *o.err)
			continue
		}
		result.FlaggedDocuments = append(result.FlaggedDocuments, *o.summary)
	}
	result.Flagged = len(result.FlaggedDocuments)
	if whatChanged != "" {
		result.Analyzed = result.Flagged
	}
	result.Message = fmt.Sprintf("Successfully flagged %d documents. Use GET /api/flag/v1 to see detailed suggestions.", result.Flagged)

	p.logger.Info(flagModule, "Flagging complete", map[string]interface{}{
		"law":             law,
		"total_found":     result.TotalFound,
		"validated":       result.Validated,
		"flagged":         result.Flagged,
		"false_positives": result.TotalFound - result.Validated,
		"errors":          len(result.Errors),
	})
	return result, nil
}

func (p *FlagPipeline) discover(ctx context.Context, law string, threshold float64) (candidates []entity.CandidateDocument, err error) {
	ctx, span := startSpan(ctx, "discover", attribute.String("law", law), attribute.Float64("threshold", threshold))
	defer func() { endSpan(span, err) }()

	uow := p.repoFactory.NewUnitOfWork(ctx)
	candidates, err = p.finder.FindCandidates(ctx, uow.ChunkRepository(), law, threshold)
	if err != nil {
		return nil, fmt.Errorf("discover candidates: %w", err)
	}

	p.logger.Info(flagModule, "Candidates discovered", map[string]interface{}{"law": law, "total_found": len(candidates)})
	span.SetAttributes(attribute.Int("total_found", len(candidates)))
	return candidates, nil
}

// validate keeps candidates in retrieval order.
func (p *FlagPipeline) validate(ctx context.Context, law string, candidates []entity.CandidateDocument) ([]entity.CandidateDocument, []entity.CandidateError, error) {
	keep := make([]bool, len(candidates))
	errs := make([]error, len(candidates))

	poolErr := workerpool.ForEach(ctx, candidates, p.config.Concurrency, func(ctx context.Context, i int, c entity.CandidateDocument) {
		keep[i], errs[i] = p.validateOne(ctx, law, c)
	})
	if poolErr != nil {
		return nil, nil, poolErr
	}

	var validated []entity.CandidateDocument
	var candidateErrs []entity.CandidateError
	for i, c := range candidates {
		if errs[i] != nil {
			candidateErrs = append(candidateErrs, entity.CandidateError{DocumentId: c.DocumentId, Stage: StageValidate, Error: errs[i].Error()})
			continue
		}
		if keep[i] {
			validated = append(validated, c)
		}
	}
	return validated, candidateErrs, nil
}

func (p *FlagPipeline) validateOne(ctx context.Context, law string, c entity.CandidateDocument) (keep bool, err error) {
	ctx, span := startSpan(ctx, "validate", attribute.String("document_id", c.DocumentId))
	defer func() { endSpan(span, err) }()
	defer recoverInto(&err)

	ok, classifyErr := p.classifier.ClassifyReference(ctx, law, CombineChunks(c.Chunks))
	if classifyErr != nil {
		keep = p.onValidationError(c, classifyErr)
		p.logger.Warn(flagModule, "Validation failed, applying policy", map[string]interface{}{
			"document_id": c.DocumentId,
			"error":       classifyErr.Error(),
			"kept":        keep,
		})
		return keep, nil
	}

	if ok {
		p.logger.Info(flagModule, "Candidate validated", map[string]interface{}{"document_id": c.DocumentId, "title": c.Title})
	} else {
		p.logger.Info(flagModule, "Candidate filtered out", map[string]interface{}{"document_id": c.DocumentId, "title": c.Title})
	}
	return ok, nil
}

func (p *FlagPipeline) flag(ctx context.Context, law string, whatChangedParam *string, whatChanged string, c entity.CandidateDocument) flagOutcome {
	stage := StageAnalyze
	fail := func(err error) flagOutcome {
		p.logger.Error(flagModule, "Candidate dropped", map[string]interface{}{
			"document_id": c.DocumentId,
			"stage":       stage,
			"error":       err.Error(),
		})
		return flagOutcome{err: &entity.CandidateError{DocumentId: c.DocumentId, Stage: stage, Error: err.Error()}}
	}

	var analysis *entity.ImpactAnalysis
	if whatChanged != "" {
		var err error
		analysis, err = p.analyzeOne(ctx, law, whatChanged, c)
		if err != nil {
			return fail(err)
		}
	}

	stage = StagePersist
	flag := &entity.Flag{
		DocumentId:        c.DocumentId,
		URL:               c.URL,
		Title:             c.Title,
		FlaggedForLaw:     law,
		WhatChanged:       whatChangedParam,
		Confidence:        c.Confidence,
		MatchType:         c.MatchType,
		Status:            entity.FlagStatusFlagged,
		FlaggedAt:         p.now(),
		ChangeSuggestions: []entity.ChangeSuggestion{},
	}
	if analysis != nil {
		flag.ChangeSuggestions = analysis.Sections
		flag.ImpactSummary = analysis.OverallImpact
	}

	if err := p.persist(ctx, flag); err != nil {
		return fail(err)
	}

	return flagOutcome{summary: &entity.FlaggedDocument{
		DocumentId:       c.DocumentId,
		Title:            c.Title,
		URL:              c.URL,
		SuggestionsCount: len(flag.ChangeSuggestions),
	}}
}

// analyzeOne only errors on a panic; analyzer failures go through the policy.
func (p *FlagPipeline) analyzeOne(ctx context.Context, law, whatChanged string, c entity.CandidateDocument) (analysis *entity.ImpactAnalysis, err error) {
	ctx, span := startSpan(ctx, "analyze", attribute.String("document_id", c.DocumentId))
	defer func() { endSpan(span, err) }()
	defer recoverInto(&err)

	analysis, analyzeErr := p.analyzer.AnalyzeImpact(ctx, law, whatChanged, CombineChunks(c.Chunks))
	if analyzeErr != nil {
		p.logger.Warn(flagModule, "Analysis failed, applying policy", map[string]interface{}{
			"document_id": c.DocumentId,
			"error":       analyzeErr.Error(),
		})
		analysis = p.onAnalysisError(c, analyzeErr)
	}
	if analysis == nil {
		analysis = &entity.ImpactAnalysis{}
	}
	if analysis.Sections == nil {
		analysis.Sections = []entity.ChangeSuggestion{}
	}

	p.logger.Info(flagModule, "Candidate analyzed", map[string]interface{}{
		"document_id": c.DocumentId,
		"suggestions": len(analysis.Sections),
	})
	return analysis, nil
}

func (p *FlagPipeline) persist(ctx context.Context, flag *entity.Flag) (err error) {
	ctx, span := startSpan(ctx, "persist", attribute.String("document_id", flag.DocumentId))
	defer func() { endSpan(span, err) }()
	defer recoverInto(&err)

	return p.repoFactory.NewUnitOfWork(ctx).FlagRepository().Upsert(ctx, flag)
}

// CombineChunks joins chunk texts ordered by section then chunk index.
func CombineChunks(chunks []entity.Chunk) string {
	sorted := make([]entity.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Metadata, sorted[j].Metadata
		if a.SectionIndex != b.SectionIndex {
			return a.SectionIndex < b.SectionIndex
		}
		return a.ChunkIndex < b.ChunkIndex
	})

	texts := make([]string, len(sorted))
	for i, c := range sorted {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}
