package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/application/service"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	OrganizationID int64  `form:"organization_id"`
	ProjectID      int64  `form:"project_id"`
	Status         string `form:"status"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// TaxRateRequest is the body of PUT /api/invoices/:id/tax-rate
type TaxRateRequest struct {
	TaxRate decimal.Decimal `json:"tax_rate"`
}

// PaidAmountRequest is the body of PUT /api/invoices/:id/paid-amount
type PaidAmountRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// PaymentRequest is the body of POST /api/invoices/:id/payments.
// PaymentDate defaults to now.
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
}

// StatusRequest is the body of PUT /api/invoices/:id/status
type StatusRequest struct {
	Status entity.InvoiceStatus `json:"status" binding:"required"`
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.services.Invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create invoice", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: invoice})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	invoices, err := h.services.Invoices.ListInvoices(c.Request.Context(), port.InvoiceFilter{
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		Status:         entity.InvoiceStatus(req.Status),
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		h.fail(c, "list invoices", err)
		return
	}
	if invoices == nil {
		invoices = []*entity.Invoice{}
	}
	h.ok(c, invoices)
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.services.Invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get invoice", err)
		return
	}
	h.ok(c, invoice)
}

// UpdateInvoice handles PATCH /api/invoices/:id
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.services.Invoices.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, "update invoice", err)
		return
	}
	h.ok(c, invoice)
}

// DeleteInvoice handles DELETE /api/invoices/:id
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.fail(c, "delete invoice", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem handles POST /api/invoices/:id/items
func (h *Handlers) AddItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var item service.ItemInput
	if !h.bindJSON(c, &item) {
		return
	}

	invoice, err := h.services.Invoices.AddItem(c.Request.Context(), id, item)
	if err != nil {
		h.fail(c, "add item", err)
		return
	}
	h.ok(c, invoice)
}

// RemoveItem handles DELETE /api/invoices/:id/items/:position
func (h *Handlers) RemoveItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		h.badRequest(c, "invalid position", err)
		return
	}

	invoice, err := h.services.Invoices.RemoveItem(c.Request.Context(), id, position)
	if err != nil {
		h.fail(c, "remove item", err)
		return
	}
	h.ok(c, invoice)
}

// SetTaxRate handles PUT /api/invoices/:id/tax-rate
func (h *Handlers) SetTaxRate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req TaxRateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.services.Invoices.SetTaxRate(c.Request.Context(), id, req.TaxRate)
	if err != nil {
		h.fail(c, "set tax rate", err)
		return
	}
	h.ok(c, invoice)
}

// SetPaidAmount handles PUT /api/invoices/:id/paid-amount
func (h *Handlers) SetPaidAmount(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PaidAmountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.services.Invoices.SetPaidAmount(c.Request.Context(), id, req.PaidAmount)
	if err != nil {
		h.fail(c, "set paid amount", err)
		return
	}
	h.ok(c, invoice)
}

// RecordPayment handles POST /api/invoices/:id/payments
func (h *Handlers) RecordPayment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	date := time.Now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	invoice, err := h.services.Invoices.RecordPayment(c.Request.Context(), id, req.Amount, date)
	if err != nil {
		h.fail(c, "record payment", err)
		return
	}
	h.ok(c, invoice)
}

// UpdateStatus handles PUT /api/invoices/:id/status
func (h *Handlers) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.services.Invoices.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, "update status", err)
		return
	}
	h.ok(c, invoice)
}
