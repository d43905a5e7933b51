package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
	"github.com/smileworks/practice-portal/internal/validator"
)

type CourseHandler struct {
	BaseHandler
	service   services.CourseService
	validator *validator.Validator
}

func NewCourseHandler(service services.CourseService, validator *validator.Validator, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// ===== CATALOG =====

// GetVisibleCourses resolves the course catalog for a caller. Query params:
// role (optional role tag) and user_id (optional; malformed values fall back
// to the anonymous path).
func (h *CourseHandler) GetVisibleCourses(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	var role *string
	if raw := c.Query("role"); raw != "" {
		role = &raw
	}
	userID := optionalUserID(c, "user_id")

	h.LogRequest(c, "resolving visible courses", "practice_id", practiceID)

	courses, err := h.service.ResolveVisibleCourses(c.Request.Context(), practiceID, role, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses, "total": len(courses)})
}

// ===== COURSE CRUD =====

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	course, err := h.service.Create(c.Request.Context(), practiceID, &req, ActingUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.service.GetWithContent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	course, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	params := &models.ListCoursesParams{
		Page:    parseIntQuery(c, "page", 0),
		Size:    parseIntQuery(c, "size", 20),
		Search:  c.Query("search"),
		Status:  models.CourseStatus(c.Query("status")),
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
	}

	resp, err := h.service.List(c.Request.Context(), practiceID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.service.Publish(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.service.Archive(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// ===== MODULES =====

func (h *CourseHandler) AddModule(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	module, err := h.service.AddModule(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *CourseHandler) UpdateModule(c *gin.Context) {
	moduleID, ok := h.parseIDParam(c, "module_id")
	if !ok {
		return
	}

	var req services.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	module, err := h.service.UpdateModule(c.Request.Context(), moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *CourseHandler) DeleteModule(c *gin.Context) {
	moduleID, ok := h.parseIDParam(c, "module_id")
	if !ok {
		return
	}

	if err := h.service.DeleteModule(c.Request.Context(), moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== LESSONS =====

func (h *CourseHandler) AddLesson(c *gin.Context) {
	moduleID, ok := h.parseIDParam(c, "module_id")
	if !ok {
		return
	}

	var req services.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	lesson, err := h.service.AddLesson(c.Request.Context(), moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	lessonID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	lesson, err := h.service.UpdateLesson(c.Request.Context(), lessonID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	lessonID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLesson(c.Request.Context(), lessonID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== SHARED HELPERS =====

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
