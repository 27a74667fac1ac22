package implementation

import (
	"context"
	"errors"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/mapper"
	"legal-indexer-be/internal/model"
	"legal-indexer-be/internal/repository/contract"
	"legal-indexer-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FlagRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FlagMapper
}

func NewFlagRepository(db *gorm.DB) contract.FlagRepository {
	return &FlagRepositoryImpl{
		db:     db,
		mapper: mapper.NewFlagMapper(),
	}
}

func (r *FlagRepositoryImpl) Upsert(ctx context.Context, flag *entity.Flag) error {
	m, err := r.mapper.ToModel(flag)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *FlagRepositoryImpl) FindByDocumentId(ctx context.Context, documentId string) (*entity.Flag, error) {
	var m model.Flag
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.ByDocumentId{DocumentId: documentId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *FlagRepositoryImpl) FindAll(ctx context.Context, filter entity.FlagFilter) ([]*entity.Flag, error) {
	specs := []specification.Specification{}
	if filter.Status != nil {
		specs = append(specs, specification.ByStatus{Status: string(*filter.Status)})
	}
	specs = append(specs,
		specification.OrderBy{Field: "flagged_at", Desc: true},
		specification.OrderBy{Field: "document_id"},
	)

	var models []*model.Flag
	if err := specification.ApplyAll(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *FlagRepositoryImpl) UpdateStatus(ctx context.Context, documentId string, status entity.FlagStatus, reviewedAt time.Time) error {
	query := specification.ApplyAll(r.db.WithContext(ctx).Model(&model.Flag{}), specification.ByDocumentId{DocumentId: documentId})
	res := query.Updates(map[string]interface{}{
		"status":      string(status),
		"reviewed_at": reviewedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entity.ErrFlagNotFound
	}
	return nil
}

func (r *FlagRepositoryImpl) DeleteByDocumentIds(ctx context.Context, documentIds []string) (int64, error) {
	if len(documentIds) == 0 {
		return 0, nil
	}
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.ByDocumentIds{DocumentIds: documentIds})
	res := query.Delete(&model.Flag{})
	return res.RowsAffected, res.Error
}

func (r *FlagRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Flag{}).Count(&count).Error
	return count, err
}

func (r *FlagRepositoryImpl) DeleteAll(ctx context.Context) error {
	return specification.All{}.Apply(r.db.WithContext(ctx)).Delete(&model.Flag{}).Error
}
