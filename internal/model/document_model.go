package model

import "time"

type Document struct {
	DocumentId string    `gorm:"type:varchar(64);primaryKey"`
	URL        string    `gorm:"type:text;not null"`
	Title      string    `gorm:"type:text"`
	Type       string    `gorm:"type:varchar(16)"`
	ChunkCount int       `gorm:"default:0"`
	IndexedAt  time.Time `gorm:"not null"`
}

func (Document) TableName() string {
	return "documents"
}
