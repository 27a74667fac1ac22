package mapper

import (
	"encoding/json"
	"fmt"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToModel(c *entity.ChunkEmbedding) (*model.ChunkEmbedding, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode chunk metadata: %w", err)
	}
	return &model.ChunkEmbedding{
		ChunkId:        c.ChunkId,
		DocumentId:     c.DocumentId,
		ChunkIndex:     c.Metadata.ChunkIndex,
		Text:           c.Text,
		Metadata:       datatypes.JSON(meta),
		EmbeddingValue: pgvector.NewVector(c.Vector),
	}, nil
}

func (m *ChunkMapper) ToModels(chunks []*entity.ChunkEmbedding) ([]*model.ChunkEmbedding, error) {
	models := make([]*model.ChunkEmbedding, len(chunks))
	for i, c := range chunks {
		mdl, err := m.ToModel(c)
		if err != nil {
			return nil, err
		}
		models[i] = mdl
	}
	return models, nil
}

func (m *ChunkMapper) ToEntity(c *model.ChunkEmbedding) (*entity.Chunk, error) {
	meta, err := decodeChunkMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}
	return &entity.Chunk{
		ChunkId:    c.ChunkId,
		DocumentId: c.DocumentId,
		Text:       c.Text,
		Metadata:   meta,
	}, nil
}

func (m *ChunkMapper) ScoredToEntity(c *model.ScoredChunkEmbedding) (*entity.ScoredChunk, error) {
	meta, err := decodeChunkMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}
	return &entity.ScoredChunk{
		Chunk: entity.Chunk{
			ChunkId:    c.ChunkId,
			DocumentId: c.DocumentId,
			Text:       c.Text,
			Metadata:   meta,
		},
		Distance: c.Distance,
	}, nil
}

func decodeChunkMetadata(raw datatypes.JSON) (entity.ChunkMetadata, error) {
	var meta entity.ChunkMetadata
	if len(raw) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("decode chunk metadata: %w", err)
	}
	return meta, nil
}
