package mapper

import (
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}
	return &entity.Document{
		DocumentId: d.DocumentId,
		URL:        d.URL,
		Title:      d.Title,
		Type:       entity.SourceType(d.Type),
		IndexedAt:  d.IndexedAt,
		ChunkCount: d.ChunkCount,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		DocumentId: d.DocumentId,
		URL:        d.URL,
		Title:      d.Title,
		Type:       string(d.Type),
		IndexedAt:  d.IndexedAt,
		ChunkCount: d.ChunkCount,
	}
}
