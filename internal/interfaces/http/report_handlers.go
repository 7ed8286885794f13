package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetFinancialHealth handles GET /api/organizations/:id/financial-health
func (h *Handlers) GetFinancialHealth(c *gin.Context) {
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	health, err := h.services.Health.GetFinancialHealth(c.Request.Context(), orgID)
	if err != nil {
		h.fail(c, "get financial health", err)
		return
	}
	h.ok(c, health)
}

// ExportFinancialHealth handles GET /api/organizations/:id/financial-health/export
func (h *Handlers) ExportFinancialHealth(c *gin.Context) {
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	health, err := h.services.Health.GetFinancialHealth(c.Request.Context(), orgID)
	if err != nil {
		h.fail(c, "export financial health", err)
		return
	}

	// Rendered into memory first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.services.Workbooks.WriteFinancialHealth(health, &buf); err != nil {
		h.fail(c, "export financial health", err)
		return
	}

	filename := fmt.Sprintf("financial-health-%d-%s.xlsx", orgID, health.GeneratedAt.UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, workbookContentType, buf.Bytes())
}

// InvalidateFinancialHealth handles DELETE /api/organizations/:id/financial-health/cache
func (h *Handlers) InvalidateFinancialHealth(c *gin.Context) {
	orgID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	h.services.Health.Invalidate(orgID)
	c.Status(http.StatusNoContent)
}
