package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== INVITE FLOW =====

func (s *userService) Invite(ctx context.Context, practiceID uint, req *InviteUserRequest, invitedBy uint) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	if _, err := s.repo.Practice().GetByID(ctx, nil, practiceID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to verify practice: %w", err)
	}

	if existing, err := s.repo.User().GetByEmail(ctx, nil, req.Email); err == nil && existing != nil {
		return nil, NewConflictError("user", fmt.Sprintf("email %s is already registered", req.Email))
	}

	token := uuid.New().String()
	now := time.Now()
	user := &models.User{
		PracticeID:  practiceID,
		FullName:    req.FullName,
		Email:       req.Email,
		Status:      models.UserInvited,
		Roles:       models.NewRoleSet(req.Roles...),
		InviteToken: &token,
		InvitedAt:   &now,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeUserInvited, map[string]interface{}{
		"user_id":     user.ID,
		"practice_id": practiceID,
		"email":       user.Email,
		"invited_by":  invitedBy,
	}))

	s.logger.Info("user invited",
		"user_id", user.ID,
		"practice_id", practiceID,
		"invited_by", invitedBy)
	return user, nil
}

func (s *userService) Activate(ctx context.Context, inviteToken string) (*models.User, error) {
	if strings.TrimSpace(inviteToken) == "" {
		return nil, NewValidationError("invite_token", "is required", inviteToken)
	}

	user, err := s.repo.User().GetByInviteToken(ctx, nil, inviteToken)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up invite token: %w", err)
	}

	now := time.Now()
	user.Status = models.UserActive
	user.ActivatedAt = &now
	user.InviteToken = nil

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeUserActivated, map[string]interface{}{
		"user_id":     user.ID,
		"practice_id": user.PracticeID,
	}))

	s.logger.Info("user activated", "user_id", user.ID)
	return user, nil
}

func (s *userService) Deactivate(ctx context.Context, id uint) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user.Status = models.UserInactive
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("user deactivated", "user_id", id)
	return nil
}

// ===== CRUD =====

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError(errs[0].Field, errs[0].Message, errs[0].Value)
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Roles != nil {
		user.Roles = models.NewRoleSet(req.Roles...)
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, practiceID uint, params *models.ListUsersParams) (*UserListResponse, error) {
	filters := repositories.UserFilters{
		Search: params.Search,
		Limit:  params.Size,
		Offset: params.Page * params.Size,
	}
	if params.Status != "" {
		status := params.Status
		filters.Status = &status
	}
	if params.Role != "" {
		role := params.Role
		filters.Role = &role
		// The SQL role filter is only a substring prefilter, so fetch the
		// full candidate set and paginate after the exact match below.
		filters.Limit = 0
		filters.Offset = 0
	}

	users, total, err := s.repo.User().List(ctx, nil, practiceID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// Role filtering happens on the decoded set, never on the stored string.
	if params.Role != "" {
		matched := users[:0]
		for _, user := range users {
			if user.Roles.Contains(params.Role) {
				matched = append(matched, user)
			}
		}
		total = int64(len(matched))
		users = pageWindow(matched, params.Page*params.Size, params.Size)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  params.Page,
		Size:  params.Size,
	}, nil
}

// ===== COURSE ASSIGNMENT =====

func (s *userService) AssignCourse(ctx context.Context, userID, courseID, assignedBy uint) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.Course().GetByID(ctx, nil, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to verify course: %w", err)
	}

	assignment := &models.CourseAssignment{
		UserID:     userID,
		CourseID:   courseID,
		AssignedBy: &assignedBy,
	}
	if err := s.repo.Assignment().Assign(ctx, nil, assignment); err != nil {
		return fmt.Errorf("failed to assign course: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeCourseAssigned, map[string]interface{}{
		"user_id":     userID,
		"course_id":   courseID,
		"assigned_by": assignedBy,
	}))

	s.logger.Info("course assigned", "user_id", userID, "course_id", courseID, "assigned_by", assignedBy)
	return nil
}

func (s *userService) UnassignCourse(ctx context.Context, userID, courseID uint) error {
	if err := s.repo.Assignment().Unassign(ctx, nil, userID, courseID); err != nil {
		return fmt.Errorf("failed to unassign course: %w", err)
	}
	s.logger.Info("course unassigned", "user_id", userID, "course_id", courseID)
	return nil
}

// ===== PRACTICE ROLE VOCABULARY =====

func (s *userService) AddPracticeRole(ctx context.Context, practiceID uint, role string) error {
	if err := s.validator.Var(role, "role_tag"); err != nil {
		return NewValidationError("role", "must be a non-empty tag without commas (max 50 chars)", role)
	}

	practice, err := s.repo.Practice().GetByID(ctx, nil, practiceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrPracticeNotFound
		}
		return fmt.Errorf("failed to get practice: %w", err)
	}

	if !practice.CustomRoles.Add(role) {
		return NewConflictError("role", fmt.Sprintf("role %q already exists for this practice", strings.TrimSpace(role)))
	}

	if err := s.repo.Practice().Update(ctx, nil, practice); err != nil {
		return fmt.Errorf("failed to save practice roles: %w", err)
	}

	s.logger.Info("practice role added", "practice_id", practiceID, "role", role)
	return nil
}

func (s *userService) ListPracticeRoles(ctx context.Context, practiceID uint) ([]string, error) {
	practice, err := s.repo.Practice().GetByID(ctx, nil, practiceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("failed to get practice: %w", err)
	}
	return practice.CustomRoles.Tags(), nil
}

// pageWindow slices the requested page out of an in-memory result set that
// was filtered after the repository query.
func pageWindow[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *userService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.Type, "error", err)
	}
}
