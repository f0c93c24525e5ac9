package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"store-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentStore keeps documents in the documents table.
type GormDocumentStore struct {
	db *gorm.DB
}

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

func (s *GormDocumentStore) LoadDocument(ctx context.Context, name string, v any) (bool, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load document %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(doc.Body), v); err != nil {
		return false, fmt.Errorf("decode document %s: %w", name, err)
	}
	return true, nil
}

func (s *GormDocumentStore) SaveDocument(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", name, err)
	}

	doc := models.Document{
		Name:      name,
		Body:      string(body),
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&doc).Error
	if err != nil {
		return fmt.Errorf("save document %s: %w", name, err)
	}
	return nil
}
