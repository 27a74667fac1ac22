package model

import (
	"time"

	"gorm.io/datatypes"
)

type Flag struct {
	DocumentId        string         `gorm:"type:varchar(64);primaryKey"`
	URL               string         `gorm:"type:text"`
	Title             string         `gorm:"type:text"`
	FlaggedForLaw     string         `gorm:"type:text;not null"`
	WhatChanged       *string        `gorm:"type:text"`
	Confidence        float64        `gorm:"default:0"`
	MatchType         string         `gorm:"type:varchar(32)"`
	Status            string         `gorm:"type:varchar(16);not null;index"`
	FlaggedAt         time.Time      `gorm:"not null;index"`
	ReviewedAt        *time.Time
	ChangeSuggestions datatypes.JSON `gorm:"type:jsonb"`
	ImpactSummary     string         `gorm:"type:text"`
}

func (Flag) TableName() string {
	return "flags"
}
