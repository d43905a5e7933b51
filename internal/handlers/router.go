package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
	"github.com/smileworks/practice-portal/internal/validator"
)

type HandlerManager struct {
	courseHandler    *CourseHandler
	progressHandler  *ProgressHandler
	quizHandler      *QuizHandler
	userHandler      *UserHandler
	knowledgeHandler *KnowledgeHandler
	dashboardHandler *DashboardHandler

	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		courseHandler:    NewCourseHandler(serviceManager.Course(), validator, logger),
		progressHandler:  NewProgressHandler(serviceManager.Progress(), logger),
		quizHandler:      NewQuizHandler(serviceManager.Quiz(), validator, logger),
		userHandler:      NewUserHandler(serviceManager.User(), validator, logger),
		knowledgeHandler: NewKnowledgeHandler(serviceManager.Knowledge(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),
		serviceManager:   serviceManager,
	}
}

// SetupRoutes registers the full API surface on the given engine.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	{
		// Practice-scoped routes
		practices := v1.Group("/practices/:practice_id")
		{
			// Catalog visible to the requesting user (query: role, user_id)
			practices.GET("/courses", hm.courseHandler.GetVisibleCourses)

			// Course management
			practices.POST("/courses", hm.courseHandler.CreateCourse)
			practices.GET("/courses/manage", hm.courseHandler.ListCourses)

			// Staff management
			practices.POST("/users", hm.userHandler.InviteUser)
			practices.GET("/users", hm.userHandler.ListUsers)

			// Custom role tags
			practices.POST("/roles", hm.userHandler.AddPracticeRole)
			practices.GET("/roles", hm.userHandler.ListPracticeRoles)

			// Knowledge base
			practices.POST("/docs", hm.knowledgeHandler.CreateDoc)
			practices.GET("/docs", hm.knowledgeHandler.ListDocs)

			// Management dashboard
			practices.GET("/dashboard/progress", hm.dashboardHandler.GetProgressMatrix)
			practices.GET("/dashboard/progress/export", hm.dashboardHandler.ExportProgressReport)
			practices.GET("/dashboard/stats", hm.dashboardHandler.GetPracticeStats)
		}

		// Course routes
		courses := v1.Group("/courses")
		{
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
			courses.POST("/:id/publish", hm.courseHandler.PublishCourse)
			courses.POST("/:id/archive", hm.courseHandler.ArchiveCourse)

			courses.POST("/:id/modules", hm.courseHandler.AddModule)

			// Quiz attempt view and per-user progress
			courses.GET("/:id/questionnaire", hm.quizHandler.GetQuestionnaireForAttempt)
			courses.POST("/:id/questionnaire", hm.quizHandler.CreateQuestionnaire)
			courses.GET("/:id/progress/:user_id", hm.progressHandler.GetCourseProgress)
		}

		// Module routes
		modules := v1.Group("/modules")
		{
			modules.PUT("/:module_id", hm.courseHandler.UpdateModule)
			modules.DELETE("/:module_id", hm.courseHandler.DeleteModule)
			modules.POST("/:module_id/lessons", hm.courseHandler.AddLesson)
		}

		// Lesson routes
		lessons := v1.Group("/lessons")
		{
			lessons.PUT("/:id", hm.courseHandler.UpdateLesson)
			lessons.DELETE("/:id", hm.courseHandler.DeleteLesson)
			lessons.POST("/:id/complete", hm.progressHandler.CompleteLesson)
		}

		// Questionnaire routes
		questionnaires := v1.Group("/questionnaires")
		{
			questionnaires.GET("/:id", hm.quizHandler.GetQuestionnaire)
			questionnaires.PUT("/:id", hm.quizHandler.UpdateQuestionnaire)
			questionnaires.DELETE("/:id", hm.quizHandler.DeleteQuestionnaire)

			questionnaires.POST("/:id/questions", hm.quizHandler.AddQuestion)
			questionnaires.PUT("/:id/questions/:question_id", hm.quizHandler.UpdateQuestion)
			questionnaires.DELETE("/:id/questions/:question_id", hm.quizHandler.DeleteQuestion)

			questionnaires.POST("/:id/grade", hm.quizHandler.GradeQuestionnaire)
			questionnaires.GET("/:id/responses", hm.quizHandler.ListResponses)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.POST("/activate", hm.userHandler.ActivateUser)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.POST("/:id/deactivate", hm.userHandler.DeactivateUser)

			users.POST("/:id/courses/:course_id", hm.userHandler.AssignCourse)
			users.DELETE("/:id/courses/:course_id", hm.userHandler.UnassignCourse)
		}

		// Knowledge doc routes
		docs := v1.Group("/docs")
		{
			docs.GET("/:id", hm.knowledgeHandler.GetDoc)
			docs.PUT("/:id", hm.knowledgeHandler.UpdateDoc)
			docs.DELETE("/:id", hm.knowledgeHandler.DeleteDoc)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
