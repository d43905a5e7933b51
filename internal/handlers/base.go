package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
	"github.com/smileworks/practice-portal/internal/validator"
)

type ErrorResponse struct {
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// BaseHandler carries the pieces every handler needs: logging and the shared
// error-to-status mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetContextLogger(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetContextLogger(c).Error(msg, append(args, "error", err)...)
}

// handleServiceError maps the service error taxonomy onto HTTP status codes.
// Unexpected failures are logged server-side and surfaced without internal
// detail.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:   "Validation failed",
			Details:   err.Error(),
			Timestamp: time.Now(),
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message:   "Forbidden",
			Timestamp: time.Now(),
		})
	default:
		h.LogError(c, err, "unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message:   "Internal server error",
			Timestamp: time.Now(),
		})
	}
}

func (h *BaseHandler) validationFailed(c *gin.Context, errs validator.ValidationErrors) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message:   "Validation failed",
		Details:   errs,
		Timestamp: time.Now(),
	})
}

func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message:   "Invalid request body",
		Details:   err.Error(),
		Timestamp: time.Now(),
	})
}

// parseIDParam parses a numeric path parameter, responding 400 on failure.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message:   "Invalid " + name + " parameter",
			Details:   raw,
			Timestamp: time.Now(),
		})
		return 0, false
	}
	return uint(id), true
}

// optionalUserID reads a user id query parameter leniently: a missing or
// non-numeric value means "no user" (the anonymous path), never an error.
func optionalUserID(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	out := uint(id)
	return &out
}
