package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/cache"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type DashboardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DashboardRepository {
	return &DashboardPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// GetPracticeStats aggregates the headline numbers for the management
// dashboard. The result is cached briefly since every admin page load asks
// for it.
func (r *DashboardPostgreSQL) GetPracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error) {
	var stats models.PracticeStats
	cacheKey := fmt.Sprintf("practice:%d", practiceID)
	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return r.computePracticeStats(ctx, practiceID)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *DashboardPostgreSQL) computePracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.PracticeStats{}

	var userCounts struct {
		Total  int
		Active int
	}
	err := db.Model(&models.User{}).
		Select("COUNT(*) as total, COUNT(*) FILTER (WHERE status = ?) as active", models.UserActive).
		Where("practice_id = ?", practiceID).
		Scan(&userCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats.TotalUsers = userCounts.Total
	stats.ActiveUsers = userCounts.Active

	var publishedCourses int64
	err = db.Model(&models.Course{}).
		Where("practice_id = ? AND status = ?", practiceID, models.CoursePublished).
		Count(&publishedCourses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count published courses: %w", err)
	}
	stats.PublishedCourses = int(publishedCourses)

	var totalAssignments int64
	err = db.Model(&models.CourseAssignment{}).
		Joins("JOIN users ON users.id = course_assignments.user_id").
		Where("users.practice_id = ?", practiceID).
		Count(&totalAssignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	stats.TotalAssignments = int(totalAssignments)

	var passRate struct {
		Total  int
		Passed int
	}
	err = db.Model(&models.QuestionnaireResponse{}).
		Select("COUNT(*) as total, COUNT(*) FILTER (WHERE passed) as passed").
		Joins("JOIN questionnaires ON questionnaires.id = questionnaire_responses.questionnaire_id").
		Joins("JOIN courses ON courses.id = questionnaires.course_id").
		Where("courses.practice_id = ?", practiceID).
		Scan(&passRate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute quiz pass rate: %w", err)
	}
	if passRate.Total > 0 {
		stats.QuizPassRate = float64(passRate.Passed) / float64(passRate.Total) * 100
	}

	return stats, nil
}
