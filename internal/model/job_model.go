package model

import (
	"time"

	"gorm.io/datatypes"
)

type Job struct {
	JobId     string         `gorm:"type:varchar(36);primaryKey"`
	Type      string         `gorm:"type:varchar(32);not null"`
	Status    string         `gorm:"type:varchar(16);not null;index"`
	Params    datatypes.JSON `gorm:"type:jsonb"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Error     *string        `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}
