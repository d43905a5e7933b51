package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smileworks/practice-portal/internal/services"
	"github.com/smileworks/practice-portal/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetProgressMatrix returns one row per active assignment in the practice.
func (h *DashboardHandler) GetProgressMatrix(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	rows, err := h.service.ProgressMatrix(c.Request.Context(), practiceID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

func (h *DashboardHandler) GetPracticeStats(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	stats, err := h.service.PracticeStats(c.Request.Context(), practiceID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportProgressReport streams the progress matrix as an xlsx download.
func (h *DashboardHandler) ExportProgressReport(c *gin.Context) {
	practiceID, ok := h.parseIDParam(c, "practice_id")
	if !ok {
		return
	}

	content, err := h.service.ExportProgressReport(c.Request.Context(), practiceID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("progress-report-%d-%s.xlsx", practiceID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
