package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/export"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ProgressMatrix joins assignments with completion records into one row per
// (user, course). Completion counting is scoped to the lessons that actually
// belong to the assigned course, so a progress record pointing at a lesson
// outside the course (orphaned content) is skipped rather than attributed.
func (s *dashboardService) ProgressMatrix(ctx context.Context, practiceID uint) ([]*models.AssignmentProgress, error) {
	assignments, err := s.repo.Assignment().ListByPractice(ctx, nil, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	if len(assignments) == 0 {
		return []*models.AssignmentProgress{}, nil
	}

	userIDs := make([]uint, 0, len(assignments))
	seen := map[uint]bool{}
	for _, assignment := range assignments {
		if !seen[assignment.UserID] {
			seen[assignment.UserID] = true
			userIDs = append(userIDs, assignment.UserID)
		}
	}

	completedByUser, err := s.repo.Progress().CompletedLessonIDsByUsers(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson progress: %w", err)
	}

	// Lesson sets per course, fetched once per distinct course.
	courseLessons := map[uint]map[uint]bool{}
	courseTitles := map[uint]string{}

	rows := make([]*models.AssignmentProgress, 0, len(assignments))
	for _, assignment := range assignments {
		lessons, ok := courseLessons[assignment.CourseID]
		if !ok {
			course, err := s.repo.Course().GetByIDWithContent(ctx, nil, assignment.CourseID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					// Assignment pointing at a vanished course: skip
					// the row, never attribute its lessons anywhere.
					courseLessons[assignment.CourseID] = nil
					continue
				}
				return nil, fmt.Errorf("failed to get course content: %w", err)
			}
			lessons = map[uint]bool{}
			for _, module := range course.Modules {
				for _, lesson := range module.Lessons {
					lessons[lesson.ID] = true
				}
			}
			courseLessons[assignment.CourseID] = lessons
			courseTitles[assignment.CourseID] = course.Title
		}
		if lessons == nil {
			continue
		}

		done := 0
		for lessonID := range completedByUser[assignment.UserID] {
			if lessons[lessonID] {
				done++
			}
		}

		rows = append(rows, &models.AssignmentProgress{
			UserID:      assignment.UserID,
			UserName:    assignment.User.FullName,
			UserEmail:   assignment.User.Email,
			CourseID:    assignment.CourseID,
			CourseTitle: courseTitles[assignment.CourseID],
			Completed:   done,
			Total:       len(lessons),
			Progress:    roundPercent(done, len(lessons)),
			AssignedAt:  assignment.CreatedAt,
		})
	}

	return rows, nil
}

func (s *dashboardService) PracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error) {
	stats, err := s.repo.Dashboard().GetPracticeStats(ctx, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get practice stats: %w", err)
	}

	rows, err := s.ProgressMatrix(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		sum := 0
		for _, row := range rows {
			sum += row.Progress
		}
		stats.AvgProgress = float64(sum) / float64(len(rows))
	}

	return stats, nil
}

func (s *dashboardService) ExportProgressReport(ctx context.Context, practiceID uint) ([]byte, error) {
	practice, err := s.repo.Practice().GetByID(ctx, nil, practiceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to get practice: %w", err)
	}

	rows, err := s.ProgressMatrix(ctx, practiceID)
	if err != nil {
		return nil, err
	}

	data, err := export.ProgressReport(practice.Name, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to render progress report: %w", err)
	}

	s.logger.Info("progress report exported", "practice_id", practiceID, "rows", len(rows))
	return data, nil
}
