package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/projectledger/finance-engine/internal/application/service"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// CreateAssignment handles POST /api/assignments
func (h *Handlers) CreateAssignment(c *gin.Context) {
	var req service.AssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.services.Resources.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create assignment", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: assignment})
}

// UpdateAssignment handles PUT /api/assignments/:id
func (h *Handlers) UpdateAssignment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.services.Resources.UpdateAssignment(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, "update assignment", err)
		return
	}
	h.ok(c, assignment)
}

// DeleteAssignment handles DELETE /api/assignments/:id
func (h *Handlers) DeleteAssignment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Resources.DeleteAssignment(c.Request.Context(), id); err != nil {
		h.fail(c, "delete assignment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAssignments handles GET /api/phases/:id/assignments
func (h *Handlers) ListAssignments(c *gin.Context) {
	phaseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	assignments, err := h.services.Resources.ListAssignments(c.Request.Context(), phaseID)
	if err != nil {
		h.fail(c, "list assignments", err)
		return
	}
	if assignments == nil {
		assignments = []*entity.ResourceAssignment{}
	}
	h.ok(c, assignments)
}

// GetAvailability handles GET /api/phases/:id/availability?user_id=
func (h *Handlers) GetAvailability(c *gin.Context) {
	phaseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.badRequest(c, "invalid user_id", err)
		return
	}

	availability, err := h.services.Resources.GetAvailability(c.Request.Context(), phaseID, userID)
	if err != nil {
		h.fail(c, "get availability", err)
		return
	}
	h.ok(c, availability)
}

// AdvanceStage handles POST /api/projects/:id/advance-stage
func (h *Handlers) AdvanceStage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.services.Projects.AdvanceStage(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "advance stage", err)
		return
	}
	h.ok(c, project)
}

// GetBillingPosition handles GET /api/projects/:id/billing-position
func (h *Handlers) GetBillingPosition(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	position, err := h.services.Projects.GetBillingPosition(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get billing position", err)
		return
	}
	h.ok(c, position)
}
