package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CompleteLesson records lesson completion for a user. An omitted completed
// flag defaults to true.
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	lessonID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	// Body is optional: the acting user header plus defaults cover the
	// common "mark done" call.
	var req services.CompleteLessonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}
	if req.UserID == 0 {
		req.UserID = ActingUserID(c)
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	if err := h.service.CompleteLesson(c.Request.Context(), lessonID, req.UserID, completed); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lesson_id": lessonID, "user_id": req.UserID, "completed": completed})
}

func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := h.parseIDParam(c, "user_id")
	if !ok {
		return
	}

	progress, err := h.service.CourseProgress(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
