package dto

import (
	"time"

	"legal-indexer-be/internal/entity"
)

type FlagDocumentsRequest struct {
	ChangedLaw          string   `json:"changed_law" validate:"required"`
	WhatChanged         *string  `json:"what_changed"`
	SimilarityThreshold *float64 `json:"similarity_threshold" validate:"omitempty,gt=0,lte=1"`
}

type ListFlagsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=flagged reviewed updated"`
}

type UpdateFlagStatusRequest struct {
	DocumentId string `json:"document_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=flagged reviewed updated"`
}

type UnflagRequest struct {
	DocumentIds []string `json:"document_ids" validate:"required,min=1,dive,required"`
}

type UnflagResponse struct {
	Removed int64 `json:"removed"`
}

type FlagResponse struct {
	DocumentId        string                    `json:"document_id"`
	URL               string                    `json:"url"`
	Title             string                    `json:"title"`
	FlaggedForLaw     string                    `json:"flagged_for_law"`
	WhatChanged       *string                   `json:"what_changed"`
	Confidence        float64                   `json:"confidence"`
	MatchType         string                    `json:"match_type"`
	Status            string                    `json:"status"`
	FlaggedAt         time.Time                 `json:"flagged_at"`
	ReviewedAt        *time.Time                `json:"reviewed_at"`
	ChangeSuggestions []entity.ChangeSuggestion `json:"change_suggestions"`
	ImpactSummary     string                    `json:"impact_summary,omitempty"`
}

type ListFlagsResponse struct {
	Flags []FlagResponse `json:"flags"`
	Total int            `json:"total"`
}
