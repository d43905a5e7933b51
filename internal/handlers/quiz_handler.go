package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
	"github.com/smileworks/practice-portal/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	service   services.QuizService
	validator *validator.Validator
}

func NewQuizHandler(service services.QuizService, validator *validator.Validator, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// ===== QUESTIONNAIRE MANAGEMENT =====

func (h *QuizHandler) CreateQuestionnaire(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateQuestionnaireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	questionnaire, err := h.service.CreateQuestionnaire(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, questionnaire)
}

// GetQuestionnaire returns the full management view, correct answers
// included. The attempt-facing endpoint is GetQuestionnaireForAttempt.
func (h *QuizHandler) GetQuestionnaire(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	questionnaire, err := h.service.GetQuestionnaire(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questionnaire)
}

func (h *QuizHandler) UpdateQuestionnaire(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateQuestionnaireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	questionnaire, err := h.service.UpdateQuestionnaire(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questionnaire)
}

func (h *QuizHandler) DeleteQuestionnaire(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteQuestionnaire(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== QUESTIONS =====

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	questionnaireID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	question, err := h.service.AddQuestion(c.Request.Context(), questionnaireID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	question, err := h.service.UpdateQuestion(c.Request.Context(), questionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	if err := h.service.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== ATTEMPT FLOW =====

// GetQuestionnaireForAttempt serves the pre-submission question view for a
// course's questionnaire; correct options and explanations are stripped.
func (h *QuizHandler) GetQuestionnaireForAttempt(c *gin.Context) {
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.service.FetchForAttempt(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GradeQuestionnaire grades a submission, persists the attempt and returns
// the per-question breakdown with answers revealed.
func (h *QuizHandler) GradeQuestionnaire(c *gin.Context) {
	questionnaireID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.UserID == 0 {
		req.UserID = ActingUserID(c)
	}
	if errs := h.validator.Validate(&req); errs.HasErrors() {
		h.validationFailed(c, errs)
		return
	}

	h.LogRequest(c, "grading questionnaire", "questionnaire_id", questionnaireID, "user_id", req.UserID)

	result, err := h.service.Grade(c.Request.Context(), questionnaireID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) ListResponses(c *gin.Context) {
	questionnaireID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	filters := repositories.ResponseFilters{
		Limit:  parseIntQuery(c, "size", 20),
		Offset: parseIntQuery(c, "page", 0) * parseIntQuery(c, "size", 20),
	}
	if userID := optionalUserID(c, "user_id"); userID != nil {
		filters.UserID = userID
	}
	if raw := c.Query("passed"); raw != "" {
		if passed, err := strconv.ParseBool(raw); err == nil {
			filters.Passed = &passed
		}
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = &to
		}
	}

	resp, err := h.service.ListResponses(c.Request.Context(), questionnaireID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
