package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type KnowledgePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewKnowledgePostgreSQL(db *gorm.DB) repositories.KnowledgeRepository {
	return &KnowledgePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *KnowledgePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *KnowledgePostgreSQL) Create(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create knowledge doc: %w", err)
	}
	return nil
}

func (r *KnowledgePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgeDoc, error) {
	db := r.getDB(tx)
	var doc models.KnowledgeDoc
	if err := db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("knowledge doc %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get knowledge doc: %w", err)
	}
	return &doc, nil
}

func (r *KnowledgePostgreSQL) Update(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(doc).Error; err != nil {
		return fmt.Errorf("failed to update knowledge doc: %w", err)
	}
	return nil
}

func (r *KnowledgePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.KnowledgeDoc{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete knowledge doc: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("knowledge doc %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *KnowledgePostgreSQL) List(ctx context.Context, tx *gorm.DB, practiceID uint, filters repositories.DocFilters) ([]*models.KnowledgeDoc, int64, error) {
	db := r.getDB(tx)

	query := db.WithContext(ctx).Model(&models.KnowledgeDoc{}).Where("practice_id = ?", practiceID)
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}
	// Tags is a comma-joined text column; exact-tag match is done in the
	// service layer after decode. The SQL filter here narrows candidates.
	if filters.Tag != nil && *filters.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+*filters.Tag+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count knowledge docs: %w", err)
	}

	query = query.Order("updated_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var docs []*models.KnowledgeDoc
	if err := query.Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list knowledge docs: %w", err)
	}

	return docs, total, nil
}
