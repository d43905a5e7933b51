package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CRUD =====

func (s *courseService) Create(ctx context.Context, practiceID uint, req *CreateCourseRequest, actorID uint) (*models.Course, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.repo.Practice().GetByID(ctx, nil, practiceID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to verify practice: %w", err)
	}

	course := &models.Course{
		PracticeID:    practiceID,
		Title:         req.Title,
		Status:        models.CourseDraft,
		AssignedRoles: models.NewRoleSet(req.AssignedRoles...),
	}
	if req.Description != "" {
		course.Description = &req.Description
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("course created",
		"course_id", course.ID,
		"practice_id", practiceID,
		"actor_id", actorID)

	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) GetWithContent(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithContent(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course content: %w", err)
	}
	course.LessonCount = countLessons(course)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.AssignedRoles != nil {
		course.AssignedRoles = models.NewRoleSet(req.AssignedRoles...)
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}
	s.logger.Info("course deleted", "course_id", id)
	return nil
}

func (s *courseService) List(ctx context.Context, practiceID uint, params *models.ListCoursesParams) (*CourseListResponse, error) {
	filters := repositories.CourseFilters{
		Search:    params.Search,
		Limit:     params.Size,
		Offset:    params.Page * params.Size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}
	if params.Status != "" {
		status := params.Status
		filters.Status = &status
	}

	courses, total, err := s.repo.Course().List(ctx, nil, practiceID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    params.Page,
		Size:    params.Size,
	}, nil
}

// ===== STATUS =====

func (s *courseService) Publish(ctx context.Context, id uint) (*models.Course, error) {
	return s.transition(ctx, id, models.CoursePublished)
}

func (s *courseService) Archive(ctx context.Context, id uint) (*models.Course, error) {
	return s.transition(ctx, id, models.CourseArchived)
}

func (s *courseService) transition(ctx context.Context, id uint, status models.CourseStatus) (*models.Course, error) {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status == status {
		return course, nil
	}

	course.Status = status
	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course status: %w", err)
	}

	if status == models.CoursePublished {
		s.publish(ctx, events.NewEvent(events.TypeCoursePublished, map[string]interface{}{
			"course_id":   course.ID,
			"practice_id": course.PracticeID,
			"title":       course.Title,
		}))
	}

	s.logger.Info("course status changed", "course_id", id, "status", status)
	return course, nil
}

// ===== VISIBILITY RESOLUTION =====

func (s *courseService) ResolveVisibleCourses(ctx context.Context, practiceID uint, role *string, userID *uint) ([]*models.Course, error) {
	courses, err := s.repo.Course().ListPublishedWithContent(ctx, nil, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load published courses: %w", err)
	}

	assigned := map[uint]bool{}
	if userID != nil {
		ids, err := s.repo.Assignment().CourseIDsForUser(ctx, nil, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load assignments: %w", err)
		}
		for _, id := range ids {
			assigned[id] = true
		}
	}

	visible := filterVisible(courses, role, assigned)

	if userID == nil {
		for _, course := range visible {
			course.LessonCount = countLessons(course)
		}
		return visible, nil
	}

	completed, err := s.repo.Progress().CompletedLessonIDs(ctx, nil, *userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson progress: %w", err)
	}
	for _, course := range visible {
		annotateProgress(course, completed)
	}
	return visible, nil
}

// filterVisible applies the visibility rules to an already published course
// set. Direct assignment wins over everything; otherwise an empty
// assigned-role set means open to all roles, a non-empty set requires exact
// membership of the caller's role, and a nil role disables role filtering.
func filterVisible(courses []*models.Course, role *string, assigned map[uint]bool) []*models.Course {
	visible := make([]*models.Course, 0, len(courses))
	for _, course := range courses {
		if assigned[course.ID] {
			course.Assigned = true
			visible = append(visible, course)
			continue
		}
		if role == nil {
			visible = append(visible, course)
			continue
		}
		if course.AssignedRoles.IsEmpty() || course.AssignedRoles.Contains(*role) {
			visible = append(visible, course)
		}
	}
	return visible
}

// annotateProgress flags each lesson completed for the user and sets the
// course's rounded progress percentage.
func annotateProgress(course *models.Course, completed map[uint]bool) {
	total := 0
	done := 0
	for mi := range course.Modules {
		module := &course.Modules[mi]
		for li := range module.Lessons {
			lesson := &module.Lessons[li]
			total++
			if completed[lesson.ID] {
				lesson.Completed = true
				done++
			}
		}
	}
	course.LessonCount = total
	course.Progress = roundPercent(done, total)
}

func countLessons(course *models.Course) int {
	total := 0
	for _, module := range course.Modules {
		total += len(module.Lessons)
	}
	return total
}

// ===== MODULES =====

func (s *courseService) AddModule(ctx context.Context, courseID uint, req *ModuleRequest) (*models.Module, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	module := &models.Module{
		CourseID: courseID,
		Title:    req.Title,
		Position: req.Position,
	}
	if err := s.repo.Course().CreateModule(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}
	return module, nil
}

func (s *courseService) UpdateModule(ctx context.Context, moduleID uint, req *ModuleRequest) (*models.Module, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	module, err := s.repo.Course().GetModule(ctx, nil, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	module.Title = req.Title
	module.Position = req.Position
	if err := s.repo.Course().UpdateModule(ctx, nil, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}
	return module, nil
}

func (s *courseService) DeleteModule(ctx context.Context, moduleID uint) error {
	if err := s.repo.Course().DeleteModule(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return nil
}

// ===== LESSONS =====

func (s *courseService) AddLesson(ctx context.Context, moduleID uint, req *LessonRequest) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.repo.Course().GetModule(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	lesson := &models.Lesson{
		ModuleID: moduleID,
		Title:    req.Title,
		Type:     req.Type,
		Position: req.Position,
	}
	if req.Content != "" {
		lesson.Content = &req.Content
	}
	if err := s.repo.Course().CreateLesson(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, lessonID uint, req *LessonRequest) (*models.Lesson, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	lesson, err := s.repo.Course().GetLesson(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	lesson.Title = req.Title
	lesson.Type = req.Type
	lesson.Position = req.Position
	if req.Content != "" {
		lesson.Content = &req.Content
	} else {
		lesson.Content = nil
	}
	if err := s.repo.Course().UpdateLesson(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return lesson, nil
}

func (s *courseService) DeleteLesson(ctx context.Context, lessonID uint) error {
	if err := s.repo.Course().DeleteLesson(ctx, nil, lessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (s *courseService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.Type, "error", err)
	}
}
