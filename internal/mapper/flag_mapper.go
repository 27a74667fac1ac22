package mapper

import (
	"encoding/json"
	"fmt"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/model"

	"gorm.io/datatypes"
)

type FlagMapper struct{}

func NewFlagMapper() *FlagMapper {
	return &FlagMapper{}
}

func (m *FlagMapper) ToModel(f *entity.Flag) (*model.Flag, error) {
	suggestions := f.ChangeSuggestions
	if suggestions == nil {
		suggestions = []entity.ChangeSuggestion{}
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return nil, fmt.Errorf("encode change suggestions: %w", err)
	}
	return &model.Flag{
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
		ChangeSuggestions: datatypes.JSON(raw),
		ImpactSummary:     f.ImpactSummary,
	}, nil
}

func (m *FlagMapper) ToEntity(f *model.Flag) (*entity.Flag, error) {
	suggestions := []entity.ChangeSuggestion{}
	if len(f.ChangeSuggestions) > 0 {
		if err := json.Unmarshal(f.ChangeSuggestions, &suggestions); err != nil {
			return nil, fmt.Errorf("decode change suggestions: %w", err)
		}
	}
	return &entity.Flag{
		DocumentId:        f.DocumentId,
		URL:               f.URL,
		Title:             f.Title,
		FlaggedForLaw:     f.FlaggedForLaw,
		WhatChanged:       f.WhatChanged,
		Confidence:        f.Confidence,
		MatchType:         entity.MatchType(f.MatchType),
		Status:            entity.FlagStatus(f.Status),
		FlaggedAt:         f.FlaggedAt,
		ReviewedAt:        f.ReviewedAt,
		ChangeSuggestions: suggestions,
		ImpactSummary:     f.ImpactSummary,
	}, nil
}

func (m *FlagMapper) ToEntities(flags []*model.Flag) ([]*entity.Flag, error) {
	out := make([]*entity.Flag, 0, len(flags))
	for _, f := range flags {
		e, err := m.ToEntity(f)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
