package services

import (
	"context"
	"time"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/repositories"
)

// ===== COURSE DTOs =====

type CreateCourseRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	AssignedRoles []string `json:"assigned_roles" validate:"omitempty,dive,role_tag"`
}

type UpdateCourseRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	AssignedRoles []string `json:"assigned_roles" validate:"omitempty,dive,role_tag"`
}

type ModuleRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Position int    `json:"position" validate:"min=0"`
}

type LessonRequest struct {
	Title    string            `json:"title" validate:"required,min=1,max=200"`
	Type     models.LessonType `json:"type" validate:"required,lesson_type"`
	Content  string            `json:"content"`
	Position int               `json:"position" validate:"min=0"`
}

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// ===== PROGRESS DTOs =====

type CompleteLessonRequest struct {
	UserID    uint  `json:"user_id" validate:"required"`
	Completed *bool `json:"completed"`
}

type CourseProgressResponse struct {
	CourseID  uint `json:"course_id"`
	UserID    uint `json:"user_id"`
	Completed int  `json:"completed_lessons"`
	Total     int  `json:"total_lessons"`
	Progress  int  `json:"progress"`
}

// ===== QUIZ DTOs =====

type CreateQuestionnaireRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=200"`
	PassingScore *int   `json:"passing_score" validate:"omitempty,passing_score"`
}

type UpdateQuestionnaireRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,passing_score"`
}

type QuestionRequest struct {
	Text          string  `json:"text" validate:"required,min=1,max=2000"`
	OptionA       string  `json:"option_a" validate:"required,max=500"`
	OptionB       string  `json:"option_b" validate:"required,max=500"`
	OptionC       string  `json:"option_c" validate:"required,max=500"`
	OptionD       string  `json:"option_d" validate:"required,max=500"`
	CorrectOption string  `json:"correct_option" validate:"required,option_label"`
	Explanation   *string `json:"explanation" validate:"omitempty,max=1000"`
	Position      int     `json:"position" validate:"min=0"`
}

// AttemptQuestion is the pre-submission view of a question. It has no
// correct-option or explanation field at all, so they cannot leak.
type AttemptQuestion struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
}

type QuestionnaireAttemptView struct {
	ID           uint              `json:"id"`
	CourseID     uint              `json:"course_id"`
	Title        string            `json:"title"`
	PassingScore int               `json:"passing_score"`
	Questions    []AttemptQuestion `json:"questions"`
}

// GradeRequest maps question ids (as JSON object keys, so strings) to the
// chosen option label. An empty map is a valid submission and scores zero.
type GradeRequest struct {
	UserID  uint              `json:"user_id" validate:"required"`
	Answers map[string]string `json:"answers"`
}

type QuestionResult struct {
	QuestionID    uint    `json:"question_id"`
	Text          string  `json:"text"`
	CorrectOption string  `json:"correct_option"`
	Explanation   *string `json:"explanation"`
	YourAnswer    *string `json:"your_answer"`
	IsCorrect     bool    `json:"is_correct"`
}

type GradingResult struct {
	ResponseID   uint             `json:"response_id"`
	Score        int              `json:"score"`
	Passed       bool             `json:"passed"`
	PassingScore int              `json:"passing_score"`
	CorrectCount int              `json:"correct_count"`
	TotalCount   int              `json:"total_count"`
	Questions    []QuestionResult `json:"questions"`
	GradedAt     time.Time        `json:"graded_at"`
}

type ResponseListResponse struct {
	Responses []*models.QuestionnaireResponse `json:"responses"`
	Total     int64                           `json:"total"`
	Stats     *repositories.QuizStats         `json:"stats,omitempty"`
}

// ===== USER DTOs =====

type InviteUserRequest struct {
	FullName string   `json:"full_name" validate:"required,min=1,max=200"`
	Email    string   `json:"email" validate:"required,email"`
	Roles    []string `json:"roles" validate:"omitempty,dive,role_tag"`
}

type UpdateUserRequest struct {
	FullName *string  `json:"full_name" validate:"omitempty,min=1,max=200"`
	Roles    []string `json:"roles" validate:"omitempty,dive,role_tag"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// ===== KNOWLEDGE DTOs =====

type KnowledgeDocRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags" validate:"omitempty,max=10,dive,role_tag"`
}

type KnowledgeDocListResponse struct {
	Docs  []*models.KnowledgeDoc `json:"docs"`
	Total int64                  `json:"total"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, practiceID uint, req *CreateCourseRequest, actorID uint) (*models.Course, error)
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetWithContent(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, practiceID uint, params *models.ListCoursesParams) (*CourseListResponse, error)

	Publish(ctx context.Context, id uint) (*models.Course, error)
	Archive(ctx context.Context, id uint) (*models.Course, error)

	// ResolveVisibleCourses returns the published courses of a practice
	// visible to the caller: directly assigned courses always included,
	// otherwise role-tag matching (empty assigned-role set = open course,
	// nil role = no role filter). When userID is set, each lesson is
	// flagged completed and each course carries a progress percentage.
	ResolveVisibleCourses(ctx context.Context, practiceID uint, role *string, userID *uint) ([]*models.Course, error)

	AddModule(ctx context.Context, courseID uint, req *ModuleRequest) (*models.Module, error)
	UpdateModule(ctx context.Context, moduleID uint, req *ModuleRequest) (*models.Module, error)
	DeleteModule(ctx context.Context, moduleID uint) error

	AddLesson(ctx context.Context, moduleID uint, req *LessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID uint, req *LessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID uint) error
}

type ProgressService interface {
	// CompleteLesson records completion for the (user, lesson) pair.
	// Marking an already completed lesson again is a harmless upsert.
	CompleteLesson(ctx context.Context, lessonID, userID uint, completed bool) error
	CourseProgress(ctx context.Context, courseID, userID uint) (*CourseProgressResponse, error)
}

type QuizService interface {
	CreateQuestionnaire(ctx context.Context, courseID uint, req *CreateQuestionnaireRequest) (*models.Questionnaire, error)
	GetQuestionnaire(ctx context.Context, id uint) (*models.Questionnaire, error)
	UpdateQuestionnaire(ctx context.Context, id uint, req *UpdateQuestionnaireRequest) (*models.Questionnaire, error)
	DeleteQuestionnaire(ctx context.Context, id uint) error

	AddQuestion(ctx context.Context, questionnaireID uint, req *QuestionRequest) (*models.Question, error)
	UpdateQuestion(ctx context.Context, questionID uint, req *QuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID uint) error

	// FetchForAttempt returns the course's questionnaire stripped of
	// correct options and explanations.
	FetchForAttempt(ctx context.Context, courseID uint) (*QuestionnaireAttemptView, error)

	// Grade scores the answer map against the stored questions, persists
	// an immutable response row and returns the full breakdown. This is
	// the only operation that reveals correct answers.
	Grade(ctx context.Context, questionnaireID uint, req *GradeRequest) (*GradingResult, error)

	ListResponses(ctx context.Context, questionnaireID uint, filters repositories.ResponseFilters) (*ResponseListResponse, error)
}

type UserService interface {
	Invite(ctx context.Context, practiceID uint, req *InviteUserRequest, invitedBy uint) (*models.User, error)
	Activate(ctx context.Context, inviteToken string) (*models.User, error)
	Deactivate(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error)
	List(ctx context.Context, practiceID uint, params *models.ListUsersParams) (*UserListResponse, error)

	AssignCourse(ctx context.Context, userID, courseID, assignedBy uint) error
	UnassignCourse(ctx context.Context, userID, courseID uint) error

	// AddPracticeRole registers a custom role tag for the practice.
	// An exact duplicate is a Conflict.
	AddPracticeRole(ctx context.Context, practiceID uint, role string) error
	ListPracticeRoles(ctx context.Context, practiceID uint) ([]string, error)
}

type KnowledgeService interface {
	Create(ctx context.Context, practiceID uint, req *KnowledgeDocRequest, createdBy uint) (*models.KnowledgeDoc, error)
	GetByID(ctx context.Context, id uint) (*models.KnowledgeDoc, error)
	Update(ctx context.Context, id uint, req *KnowledgeDocRequest) (*models.KnowledgeDoc, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, practiceID uint, filters repositories.DocFilters) (*KnowledgeDocListResponse, error)
}

type DashboardService interface {
	// ProgressMatrix builds one row per (user, course) assignment with the
	// same rounded percentage learners see on their own course view.
	ProgressMatrix(ctx context.Context, practiceID uint) ([]*models.AssignmentProgress, error)
	PracticeStats(ctx context.Context, practiceID uint) (*models.PracticeStats, error)
	// ExportProgressReport renders the matrix as an xlsx workbook.
	ExportProgressReport(ctx context.Context, practiceID uint) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Course() CourseService
	Progress() ProgressService
	Quiz() QuizService
	User() UserService
	Knowledge() KnowledgeService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
