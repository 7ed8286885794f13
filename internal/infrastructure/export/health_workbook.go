package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// Sheet names of the dashboard workbook
const (
	SheetOverall         = "Overall"
	SheetByChargeType    = "ByChargeType"
	SheetByProjectStage  = "ByProjectStage"
	SheetByInvoiceStatus = "ByInvoiceStatus"
)

var dimensionHeader = []interface{}{
	"Key", "Projects", "Total Budget", "Invoices", "Total Invoiced", "Total Paid", "Outstanding", "Collection Rate %",
}

var statusHeader = []interface{}{
	"Status", "Projects", "Invoices", "Total Amount", "Total Paid", "Outstanding", "Collection Rate %",
}

// WorkbookExporter renders financial dashboards as XLSX workbooks
type WorkbookExporter struct {
	logger *zap.Logger
}

// NewWorkbookExporter creates a new exporter
func NewWorkbookExporter(logger *zap.Logger) *WorkbookExporter {
	return &WorkbookExporter{logger: logger}
}

// WriteFinancialHealth writes the dashboard to w, one sheet per rollup
func (e *WorkbookExporter) WriteFinancialHealth(health *entity.FinancialHealth, w io.Writer) error {
	if health == nil {
		return fmt.Errorf("financial health is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverall); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetByChargeType, SheetByProjectStage, SheetByInvoiceStatus} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	e.fillOverall(f, health, headerStyle)
	e.fillDimension(f, SheetByChargeType, health.ByChargeType, headerStyle)
	e.fillDimension(f, SheetByProjectStage, health.ByProjectStage, headerStyle)
	e.fillStatus(f, health.ByInvoiceStatus, headerStyle)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Financial health workbook written",
		zap.Int64("organization_id", health.OrganizationID))
	return nil
}

func (e *WorkbookExporter) fillOverall(f *excelize.File, health *entity.FinancialHealth, headerStyle int) {
	o := health.Overall
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Organization", health.OrganizationID},
		{"Generated At", health.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Invoices", o.InvoiceCount},
		{"Total Invoiced", amount(o.TotalInvoiced)},
		{"Total Paid", amount(o.TotalPaid)},
		{"Total Outstanding", amount(o.TotalOutstanding)},
		{"Collection Rate %", amount(o.CollectionRate)},
		{"Active Projects", o.ActiveProjects},
		{"Total Budget", amount(o.TotalBudget)},
		{"Total Actual Cost", amount(o.TotalActualCost)},
	}
	for i, row := range rows {
		e.setRow(f, SheetOverall, i+1, row)
	}
	e.styleHeader(f, SheetOverall, 2, headerStyle)
}

func (e *WorkbookExporter) fillDimension(f *excelize.File, sheet string, rows []entity.DimensionHealth, headerStyle int) {
	e.setRow(f, sheet, 1, dimensionHeader)
	e.styleHeader(f, sheet, len(dimensionHeader), headerStyle)

	for i, d := range rows {
		e.setRow(f, sheet, i+2, []interface{}{
			d.Key,
			d.ProjectCount,
			amount(d.TotalBudget),
			d.InvoiceCount,
			amount(d.TotalInvoiced),
			amount(d.TotalPaid),
			amount(d.Outstanding),
			amount(d.CollectionRate),
		})
	}
}

func (e *WorkbookExporter) fillStatus(f *excelize.File, rows []entity.InvoiceStatusHealth, headerStyle int) {
	e.setRow(f, SheetByInvoiceStatus, 1, statusHeader)
	e.styleHeader(f, SheetByInvoiceStatus, len(statusHeader), headerStyle)

	for i, s := range rows {
		e.setRow(f, SheetByInvoiceStatus, i+2, []interface{}{
			string(s.Status),
			s.ProjectCount,
			s.InvoiceCount,
			amount(s.TotalAmount),
			amount(s.TotalPaid),
			amount(s.Outstanding),
			amount(s.CollectionRate),
		})
	}
}

// setRow writes values starting at column A. Failures are logged and the
// rest of the workbook is still produced.
func (e *WorkbookExporter) setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err == nil {
		err = f.SetSheetRow(sheet, cell, &values)
	}
	if err != nil {
		e.logger.Warn("Failed to set row",
			zap.String("sheet", sheet),
			zap.Int("row", row),
			zap.Error(err))
	}
}

func (e *WorkbookExporter) styleHeader(f *excelize.File, sheet string, columns, style int) {
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err == nil {
		err = f.SetCellStyle(sheet, "A1", last, style)
	}
	if err != nil {
		e.logger.Warn("Failed to style header", zap.String("sheet", sheet), zap.Error(err))
	}
}

// amount converts money for the spreadsheet, which only stores floats
func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
