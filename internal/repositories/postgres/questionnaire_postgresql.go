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

type QuestionnairePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionnairePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionnaireRepository {
	return &QuestionnairePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *QuestionnairePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuestionnairePostgreSQL) Create(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(questionnaire).Error; err != nil {
		return fmt.Errorf("failed to create questionnaire: %w", err)
	}
	cache.InvalidateQuestionnaireCache(ctx, r.cacheManager, questionnaire.ID, questionnaire.CourseID)
	return nil
}

func (r *QuestionnairePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Questionnaire, error) {
	db := r.getDB(tx)

	var questionnaire models.Questionnaire
	cacheKey := fmt.Sprintf("id:%d", id)
	err := r.cacheManager.Questionnaire.CacheOrExecute(ctx, cacheKey, &questionnaire, cache.QuestionnaireCacheConfig.TTL, func() (interface{}, error) {
		var q models.Questionnaire
		err := preloadQuestions(db.WithContext(ctx)).First(&q, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("questionnaire %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get questionnaire: %w", err)
		}
		return &q, nil
	})
	if err != nil {
		return nil, err
	}
	return &questionnaire, nil
}

func (r *QuestionnairePostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*models.Questionnaire, error) {
	db := r.getDB(tx)

	var questionnaire models.Questionnaire
	cacheKey := fmt.Sprintf("course:%d", courseID)
	err := r.cacheManager.Questionnaire.CacheOrExecute(ctx, cacheKey, &questionnaire, cache.QuestionnaireCacheConfig.TTL, func() (interface{}, error) {
		var q models.Questionnaire
		err := preloadQuestions(db.WithContext(ctx)).Where("course_id = ?", courseID).First(&q).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("questionnaire for course %d: %w", courseID, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get questionnaire by course: %w", err)
		}
		return &q, nil
	})
	if err != nil {
		return nil, err
	}
	return &questionnaire, nil
}

func (r *QuestionnairePostgreSQL) Update(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).
		Omit("Questions", "Responses").
		Save(questionnaire).Error
	if err != nil {
		return fmt.Errorf("failed to update questionnaire: %w", err)
	}
	cache.InvalidateQuestionnaireCache(ctx, r.cacheManager, questionnaire.ID, questionnaire.CourseID)
	return nil
}

func (r *QuestionnairePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	var questionnaire models.Questionnaire
	if err := db.WithContext(ctx).First(&questionnaire, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("questionnaire %d: %w", id, gorm.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get questionnaire for delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&questionnaire).Error; err != nil {
		return fmt.Errorf("failed to delete questionnaire: %w", err)
	}
	cache.InvalidateQuestionnaireCache(ctx, r.cacheManager, id, questionnaire.CourseID)
	return nil
}

func preloadQuestions(db *gorm.DB) *gorm.DB {
	return db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	})
}

// ===== QUESTIONS =====

func (r *QuestionnairePostgreSQL) AddQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to add question: %w", err)
	}
	r.invalidateForQuestionnaire(ctx, question.QuestionnaireID)
	return nil
}

func (r *QuestionnairePostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := r.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (r *QuestionnairePostgreSQL) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	r.invalidateForQuestionnaire(ctx, question.QuestionnaireID)
	return nil
}

func (r *QuestionnairePostgreSQL) DeleteQuestion(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question %d: %w", id, gorm.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get question for delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&question).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	r.invalidateForQuestionnaire(ctx, question.QuestionnaireID)
	return nil
}

func (r *QuestionnairePostgreSQL) invalidateForQuestionnaire(ctx context.Context, questionnaireID uint) {
	var questionnaire models.Questionnaire
	if err := r.db.WithContext(ctx).Select("id, course_id").First(&questionnaire, questionnaireID).Error; err != nil {
		cache.SafeDelete(ctx, r.cacheManager.Questionnaire, fmt.Sprintf("id:%d", questionnaireID))
		return
	}
	cache.InvalidateQuestionnaireCache(ctx, r.cacheManager, questionnaireID, questionnaire.CourseID)
}

// ===== RESPONSES =====

type ResponsePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a new response row. A retake always produces a fresh row;
// existing responses are never rewritten.
func (r *ResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.QuestionnaireResponse) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create questionnaire response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionnaireResponse, error) {
	db := r.getDB(tx)
	var response models.QuestionnaireResponse
	if err := db.WithContext(ctx).First(&response, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("questionnaire response %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get questionnaire response: %w", err)
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) ListByQuestionnaire(ctx context.Context, tx *gorm.DB, questionnaireID uint, filters repositories.ResponseFilters) ([]*models.QuestionnaireResponse, int64, error) {
	db := r.getDB(tx)

	query := db.WithContext(ctx).
		Model(&models.QuestionnaireResponse{}).
		Where("questionnaire_id = ?", questionnaireID)
	query = r.helpers.ApplyResponseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var responses []*models.QuestionnaireResponse
	if err := query.Find(&responses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}

	return responses, total, nil
}

func (r *ResponsePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, questionnaireID uint) (*repositories.QuizStats, error) {
	db := r.getDB(tx)

	var row struct {
		TotalResponses int
		PassedCount    int
		AverageScore   float64
	}
	err := db.WithContext(ctx).
		Model(&models.QuestionnaireResponse{}).
		Select("COUNT(*) as total_responses, COUNT(*) FILTER (WHERE passed) as passed_count, COALESCE(AVG(score), 0) as average_score").
		Where("questionnaire_id = ?", questionnaireID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get response stats: %w", err)
	}

	stats := &repositories.QuizStats{
		TotalResponses: row.TotalResponses,
		PassedCount:    row.PassedCount,
		AverageScore:   row.AverageScore,
	}
	if row.TotalResponses > 0 {
		stats.PassRate = float64(row.PassedCount) / float64(row.TotalResponses) * 100
	}
	return stats, nil
}
