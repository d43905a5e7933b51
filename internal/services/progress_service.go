package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		logger:    logger,
		publisher: publisher,
	}
}

func (s *progressService) CompleteLesson(ctx context.Context, lessonID, userID uint, completed bool) error {
	if _, err := s.repo.Course().GetLesson(ctx, nil, lessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to get lesson: %w", err)
	}
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status == models.UserInactive {
		return NewPermissionError(userID, lessonID, "lesson", "complete", "user is deactivated")
	}

	progress := &models.LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		Completed: completed,
	}
	if completed {
		now := time.Now()
		progress.CompletedAt = &now
	}

	if err := s.repo.Progress().Upsert(ctx, nil, progress); err != nil {
		return fmt.Errorf("failed to record lesson progress: %w", err)
	}

	if completed && s.publisher != nil {
		event := events.NewEvent(events.TypeLessonCompleted, map[string]interface{}{
			"lesson_id": lessonID,
			"user_id":   userID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.Type, "error", err)
		}
	}

	s.logger.Info("lesson progress recorded",
		"lesson_id", lessonID,
		"user_id", userID,
		"completed", completed)
	return nil
}

func (s *progressService) CourseProgress(ctx context.Context, courseID, userID uint) (*CourseProgressResponse, error) {
	course, err := s.repo.Course().GetByIDWithContent(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course content: %w", err)
	}

	completed, err := s.repo.Progress().CompletedLessonIDs(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson progress: %w", err)
	}

	annotateProgress(course, completed)

	done := 0
	for _, module := range course.Modules {
		for _, lesson := range module.Lessons {
			if lesson.Completed {
				done++
			}
		}
	}

	return &CourseProgressResponse{
		CourseID:  courseID,
		UserID:    userID,
		Completed: done,
		Total:     course.LessonCount,
		Progress:  course.Progress,
	}, nil
}

// roundPercent computes round-half-up(100*done/total), 0 for an empty set.
// Learner views and dashboard roll-ups both go through here so the two can
// never disagree on the same data.
func roundPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(done*100)/float64(total) + 0.5))
}
