package implementation

import (
	"context"
	"errors"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/mapper"
	"legal-indexer-be/internal/model"
	"legal-indexer-be/internal/repository/contract"
	"legal-indexer-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Upsert(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *DocumentRepositoryImpl) FindByDocumentId(ctx context.Context, documentId string) (*entity.Document, error) {
	var m model.Document
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.ByDocumentId{DocumentId: documentId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&count).Error
	return count, err
}

func (r *DocumentRepositoryImpl) DeleteAll(ctx context.Context) error {
	return specification.All{}.Apply(r.db.WithContext(ctx)).Delete(&model.Document{}).Error
}
