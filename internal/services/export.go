package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// ChecklistSheet is the worksheet name of exported checklists
const ChecklistSheet = "Checklist"

var checklistHeaders = []string{
	"Section",
	"Item",
	"Quantity",
	"Notes",
	"Category",
	"Subsection",
	"Checked",
}

// ChecklistExporter writes a checklist as an XLSX workbook, one row per item
// in store-walk order.
type ChecklistExporter struct {
	ordering *OrderingEngine
	logger   *zap.Logger
}

// NewChecklistExporter creates an exporter
func NewChecklistExporter(ordering *OrderingEngine, logger *zap.Logger) *ChecklistExporter {
	return &ChecklistExporter{ordering: ordering, logger: logger}
}

// ExportXLSX returns the workbook bytes
func (e *ChecklistExporter) ExportXLSX(title string, items []models.ShoppingItem) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("export.xlsx.close_error", zap.Error(err))
		}
	}()

	if index, _ := f.GetSheetIndex(ChecklistSheet); index == -1 {
		if _, err := f.NewSheet(ChecklistSheet); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(ChecklistSheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	if title != "" {
		_ = f.SetDocProps(&excelize.DocProperties{Title: title})
	}

	for i, h := range checklistHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ChecklistSheet, cell, h)
	}

	row := 2
	for _, section := range e.ordering.BuildSections(items) {
		for _, item := range section.Items {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(ChecklistSheet, cell, v)
			}
			write(1, section.Title)
			write(2, item.CanonicalName)
			write(3, deref(item.Quantity))
			write(4, deref(item.Notes))
			write(5, item.CategoryID.Label())
			write(6, deref(item.MajorSubsection))
			write(7, item.Checked)
			row++
		}
	}

	_ = f.SetColWidth(ChecklistSheet, "A", "A", 32) // section
	_ = f.SetColWidth(ChecklistSheet, "B", "B", 28) // item
	_ = f.SetColWidth(ChecklistSheet, "C", "C", 14) // quantity
	_ = f.SetColWidth(ChecklistSheet, "D", "D", 36) // notes
	_ = f.SetColWidth(ChecklistSheet, "E", "F", 22)
	_ = f.SetColWidth(ChecklistSheet, "G", "G", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("export.xlsx.ok",
		zap.Int("rows", row-2),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
