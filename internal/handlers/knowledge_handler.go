package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/repositories"
	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
)

type KnowledgeHandler struct {
	BaseHandler
	service services.KnowledgeService
}

func NewKnowledgeHandler(service services.KnowledgeService, logger utils.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *KnowledgeHandler) CreateDoc(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	var req services.KnowledgeDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), practiceID, &req, ActingUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *KnowledgeHandler) GetDoc(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *KnowledgeHandler) UpdateDoc(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.KnowledgeDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	doc, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *KnowledgeHandler) DeleteDoc(c *gin.Context) {
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

func (h *KnowledgeHandler) ListDocs(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	page := parseIntQuery(c, "page", 0)
	size := parseIntQuery(c, "size", 20)
	filters := repositories.DocFilters{
		Search: c.Query("search"),
		Limit:  size,
		Offset: page * size,
	}
	if tag := c.Query("tag"); tag != "" {
		filters.Tag = &tag
	}

	resp, err := h.service.List(c.Request.Context(), practiceID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
