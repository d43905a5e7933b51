package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (r *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Assign inserts the (user, course) edge. Re-assigning an already assigned
// course is a no-op rather than an error.
func (r *AssignmentPostgreSQL) Assign(ctx context.Context, tx *gorm.DB, assignment *models.CourseAssignment) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(assignment).Error
	if err != nil {
		return fmt.Errorf("failed to assign course: %w", err)
	}
	return nil
}

func (r *AssignmentPostgreSQL) Unassign(ctx context.Context, tx *gorm.DB, userID, courseID uint) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CourseAssignment{}).Error
	if err != nil {
		return fmt.Errorf("failed to unassign course: %w", err)
	}
	return nil
}

func (r *AssignmentPostgreSQL) CourseIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]uint, error) {
	db := r.getDB(tx)
	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.CourseAssignment{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assigned course ids: %w", err)
	}
	return ids, nil
}

func (r *AssignmentPostgreSQL) ListByPractice(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.CourseAssignment, error) {
	db := r.getDB(tx)
	var assignments []*models.CourseAssignment
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Joins("JOIN users ON users.id = course_assignments.user_id").
		Where("users.practice_id = ?", practiceID).
		Order("course_assignments.created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// ===== LESSON PROGRESS =====

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (r *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Upsert writes the unique (user, lesson) completion record. Re-marking a
// lesson updates the existing row in place.
func (r *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
		}).
		Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}
	return nil
}

func (r *ProgressPostgreSQL) CompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID uint) (map[uint]bool, error) {
	db := r.getDB(tx)
	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.LessonProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completed lessons: %w", err)
	}

	completed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

func (r *ProgressPostgreSQL) CompletedLessonIDsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]map[uint]bool, error) {
	result := make(map[uint]map[uint]bool, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	db := r.getDB(tx)
	var rows []models.LessonProgress
	err := db.WithContext(ctx).
		Where("user_id IN ? AND completed = ?", userIDs, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completed lessons for users: %w", err)
	}

	for _, row := range rows {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[uint]bool)
		}
		result[row.UserID][row.LessonID] = true
	}
	return result, nil
}
