package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/practice-portal/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Status    *models.CourseStatus `json:"status"`
	Search    string               `json:"search"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "title", "status"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Status *models.UserStatus `json:"status"`
	// Role narrows candidates with a substring match over the encoded roles
	// column; the exact-tag match runs on the decoded set in the service.
	Role   *string `json:"role"`
	Search string  `json:"search"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type ResponseFilters struct {
	UserID   *uint      `json:"user_id"`
	Passed   *bool      `json:"passed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

type DocFilters struct {
	Tag    *string `json:"tag"`
	Search string  `json:"search"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	TotalResponses int     `json:"total_responses"`
	PassedCount    int     `json:"passed_count"`
	PassRate       float64 `json:"pass_rate"`
	AverageScore   float64 `json:"average_score"`
}

// ===== REPOSITORY INTERFACES =====

type PracticeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, practice *models.Practice) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Practice, error)
	Update(ctx context.Context, tx *gorm.DB, practice *models.Practice) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.Practice, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByInviteToken(ctx context.Context, tx *gorm.DB, token string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	List(ctx context.Context, tx *gorm.DB, practiceID uint, filters UserFilters) ([]*models.User, int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	// GetByIDWithContent preloads modules and lessons in position order.
	GetByIDWithContent(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, practiceID uint, filters CourseFilters) ([]*models.Course, int64, error)
	// ListPublishedWithContent returns all published courses of a practice
	// with their modules and lessons, ordered by position.
	ListPublishedWithContent(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.Course, error)

	CreateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error
	UpdateModule(ctx context.Context, tx *gorm.DB, module *models.Module) error
	DeleteModule(ctx context.Context, tx *gorm.DB, id uint) error
	GetModule(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)

	CreateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	UpdateLesson(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, tx *gorm.DB, id uint) error
	GetLesson(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
}

type AssignmentRepository interface {
	// Assign creates the (user, course) edge if missing. Idempotent.
	Assign(ctx context.Context, tx *gorm.DB, assignment *models.CourseAssignment) error
	Unassign(ctx context.Context, tx *gorm.DB, userID, courseID uint) error
	// CourseIDsForUser returns the ids of directly assigned courses.
	CourseIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]uint, error)
	// ListByPractice returns assignments for all users in a practice with
	// user and course preloaded, for the management progress matrix.
	ListByPractice(ctx context.Context, tx *gorm.DB, practiceID uint) ([]*models.CourseAssignment, error)
}

type ProgressRepository interface {
	// Upsert writes the unique (user, lesson) record, last write wins.
	Upsert(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error
	// CompletedLessonIDs returns the set of lesson ids a user completed.
	CompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID uint) (map[uint]bool, error)
	// CompletedLessonIDsByUsers batches the same lookup for dashboards.
	CompletedLessonIDsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]map[uint]bool, error)
}

type QuestionnaireRepository interface {
	Create(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error
	// GetByID preloads questions in position order.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Questionnaire, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*models.Questionnaire, error)
	Update(ctx context.Context, tx *gorm.DB, questionnaire *models.Questionnaire) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	AddQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error
	DeleteQuestion(ctx context.Context, tx *gorm.DB, id uint) error
}

type ResponseRepository interface {
	// Create inserts a new immutable response row. Responses are never
	// updated or deleted individually.
	Create(ctx context.Context, tx *gorm.DB, response *models.QuestionnaireResponse) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionnaireResponse, error)
	ListByQuestionnaire(ctx context.Context, tx *gorm.DB, questionnaireID uint, filters ResponseFilters) ([]*models.QuestionnaireResponse, int64, error)
	GetStats(ctx context.Context, tx *gorm.DB, questionnaireID uint) (*QuizStats, error)
}

type KnowledgeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgeDoc, error)
	Update(ctx context.Context, tx *gorm.DB, doc *models.KnowledgeDoc) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, practiceID uint, filters DocFilters) ([]*models.KnowledgeDoc, int64, error)
}

type DashboardRepository interface {
	GetPracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error)
}
