package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ChunkEmbedding has no fixed vector dimension so any embedding model can be used.
type ChunkEmbedding struct {
	ChunkId        string          `gorm:"type:varchar(64);primaryKey"`
	DocumentId     string          `gorm:"type:varchar(64);not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Text           string          `gorm:"type:text"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (ChunkEmbedding) TableName() string {
	return "chunk_embeddings"
}

// ScoredChunkEmbedding is the row shape of a nearest-neighbour query.
type ScoredChunkEmbedding struct {
	ChunkId    string
	DocumentId string
	Text       string
	Metadata   datatypes.JSON
	Distance   float64
}
