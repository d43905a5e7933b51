package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
	"github.com/smileworks/practice-portal/internal/validator"
)

type UserHandler struct {
	BaseHandler
	service   services.UserService
	validator *validator.Validator
}

func NewUserHandler(service services.UserService, validator *validator.Validator, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// ===== INVITE FLOW =====

func (h *UserHandler) InviteUser(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	var req services.InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	user, err := h.service.Invite(c.Request.Context(), practiceID, &req, ActingUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ActivateUser(c *gin.Context) {
	var req struct {
		InviteToken string `json:"invite_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.service.Activate(c.Request.Context(), req.InviteToken)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeactivateUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== CRUD =====

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	params := &models.ListUsersParams{
		Page:   parseIntQuery(c, "page", 0),
		Size:   parseIntQuery(c, "size", 20),
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Status: models.UserStatus(c.Query("status")),
	}

	resp, err := h.service.List(c.Request.Context(), practiceID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ===== COURSE ASSIGNMENT =====

func (h *UserHandler) AssignCourse(c *gin.Context) {
	userID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	courseID, ok := h.parseIDParam(c, "course_id")
	if !ok {
		return
	}

	if err := h.service.AssignCourse(c.Request.Context(), userID, courseID, ActingUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "course_id": courseID, "assigned": true})
}

func (h *UserHandler) UnassignCourse(c *gin.Context) {
	userID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	courseID, ok := h.parseIDParam(c, "course_id")
	if !ok {
		return
	}

	if err := h.service.UnassignCourse(c.Request.Context(), userID, courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== PRACTICE ROLES =====

func (h *UserHandler) AddPracticeRole(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.service.AddPracticeRole(c.Request.Context(), practiceID, req.Role); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": req.Role})
}

func (h *UserHandler) ListPracticeRoles(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	roles, err := h.service.ListPracticeRoles(c.Request.Context(), practiceID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}
