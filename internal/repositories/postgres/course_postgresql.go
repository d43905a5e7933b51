package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/cache"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== COURSE CRUD =====

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, course.ID, course.PracticeID)
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := r.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// GetByIDWithContent loads the course with modules and lessons in display
// order, serving from cache when available.
func (r *CoursePostgreSQL) GetByIDWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := r.getDB(tx)

	var course models.Course
	cacheKey := fmt.Sprintf("content:%d", id)
	err := r.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		if err := preloadContent(db.WithContext(ctx)).First(&dbCourse, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("course %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get course with content: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, course.ID, course.PracticeID)
	return nil
}

func (r *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("course %d: %w", id, gorm.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get course for delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&course).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, r.cacheManager, id, course.PracticeID)
	return nil
}

func (r *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, practiceID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := r.getDB(tx)

	query := db.WithContext(ctx).Model(&models.Course{}).Where("practice_id = ?", practiceID)
	query = r.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

// ListPublishedWithContent returns the published catalog of a practice with
// nested modules and lessons ordered by position.
func (r *CoursePostgreSQL) ListPublishedWithContent(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.Course, error) {
	db := r.getDB(tx)

	var courses []*models.Course
	cacheKey := fmt.Sprintf("catalog:%d", practiceID)
	err := r.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &courses, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourses []*models.Course
		err := preloadContent(db.WithContext(ctx)).
			Where("practice_id = ? AND status = ?", practiceID, models.CoursePublished).
			Order("created_at ASC").
			Find(&dbCourses).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list published courses: %w", err)
		}
		return dbCourses, nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// Position ordering with id as the insertion-order tiebreak.
func preloadContent(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
}

// ===== MODULE CRUD =====

func (r *CoursePostgreSQL) CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	r.invalidateForCourse(ctx, module.CourseID)
	return nil
}

func (r *CoursePostgreSQL) UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(module).Error; err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	r.invalidateForCourse(ctx, module.CourseID)
	return nil
}

func (r *CoursePostgreSQL) DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	module, err := r.GetModule(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.Module{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	r.invalidateForCourse(ctx, module.CourseID)
	return nil
}

func (r *CoursePostgreSQL) GetModule(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	db := r.getDB(tx)
	var module models.Module
	if err := db.WithContext(ctx).First(&module, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &module, nil
}

// ===== LESSON CRUD =====

func (r *CoursePostgreSQL) CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	r.invalidateForModule(ctx, lesson.ModuleID)
	return nil
}

func (r *CoursePostgreSQL) UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(lesson).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	r.invalidateForModule(ctx, lesson.ModuleID)
	return nil
}

func (r *CoursePostgreSQL) DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	lesson, err := r.GetLesson(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.Lesson{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	r.invalidateForModule(ctx, lesson.ModuleID)
	return nil
}

func (r *CoursePostgreSQL) GetLesson(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	db := r.getDB(tx)
	var lesson models.Lesson
	if err := db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lesson %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

// ===== CACHE HELPERS =====

func (r *CoursePostgreSQL) invalidateForCourse(ctx context.Context, courseID uint) {
	var course models.Course
	if err := r.db.WithContext(ctx).Select("id, practice_id").First(&course, courseID).Error; err != nil {
		// Course may be mid-delete; drop just the content key.
		cache.SafeDelete(ctx, r.cacheManager.Course, fmt.Sprintf("content:%d", courseID))
		return
	}
	cache.InvalidateCourseCache(ctx, r.cacheManager, courseID, course.PracticeID)
}

func (r *CoursePostgreSQL) invalidateForModule(ctx context.Context, moduleID uint) {
	var module models.Module
	if err := r.db.WithContext(ctx).Select("id, course_id").First(&module, moduleID).Error; err != nil {
		return
	}
	r.invalidateForCourse(ctx, module.CourseID)
}
