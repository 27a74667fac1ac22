package entity

import "time"

type FlagStatus string

const (
	FlagStatusFlagged  FlagStatus = "flagged"
	FlagStatusReviewed FlagStatus = "reviewed"
	FlagStatusUpdated  FlagStatus = "updated"
)

func (s FlagStatus) Valid() bool {
	switch s {
	case FlagStatusFlagged, FlagStatusReviewed, FlagStatusUpdated:
		return true
	}
	return false
}

type ChangeSuggestion struct {
	SectionText     string  `json:"section_text"`
	Issue           string  `json:"issue"`
	SuggestedChange string  `json:"suggested_change"`
	Confidence      float64 `json:"confidence"`
}

// ImpactAnalysis is the structured answer of the analysis capability.
type ImpactAnalysis struct {
	DocumentMentionsLaw bool               `json:"document_mentions_law"`
	OverallImpact       string             `json:"overall_impact"`
	Sections            []ChangeSuggestion `json:"sections_needing_update"`
}

// Flag is keyed by DocumentId; flagging the same document again replaces the record.
type Flag struct {
	DocumentId        string
	URL               string
	Title             string
	FlaggedForLaw     string
	WhatChanged       *string
	Confidence        float64
	MatchType         MatchType
	Status            FlagStatus
	FlaggedAt         time.Time
	ReviewedAt        *time.Time
	ChangeSuggestions []ChangeSuggestion
	ImpactSummary     string
}

type FlagFilter struct {
	Status *FlagStatus
}
