package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type PracticePostgreSQL struct {
	db *gorm.DB
}

func NewPracticePostgreSQL(db *gorm.DB) repositories.PracticeRepository {
	return &PracticePostgreSQL{db: db}
}

func (r *PracticePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PracticePostgreSQL) Create(ctx context.Context, tx *gorm.DB, practice *models.Practice) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(practice).Error; err != nil {
		return fmt.Errorf("failed to create practice: %w", err)
	}
	return nil
}

func (r *PracticePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Practice, error) {
	db := r.getDB(tx)
	var practice models.Practice
	if err := db.WithContext(ctx).First(&practice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("practice %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get practice: %w", err)
	}
	return &practice, nil
}

func (r *PracticePostgreSQL) Update(ctx context.Context, tx *gorm.DB, practice *models.Practice) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(practice).Error; err != nil {
		return fmt.Errorf("failed to update practice: %w", err)
	}
	return nil
}

func (r *PracticePostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Practice, error) {
	db := r.getDB(tx)
	var practices []*models.Practice
	if err := db.WithContext(ctx).Order("name ASC").Find(&practices).Error; err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", err)
	}
	return practices, nil
}
