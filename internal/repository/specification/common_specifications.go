package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// ByDocumentId filters by document_id
type ByDocumentId struct {
	DocumentId string
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}

// ByDocumentIds filters by a list of document ids
type ByDocumentIds struct {
	DocumentIds []string
}

func (s ByDocumentIds) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id IN ?", s.DocumentIds)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// All lets bulk deletes pass gorm's global-update guard.
type All struct{}

func (s All) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 1")
}
