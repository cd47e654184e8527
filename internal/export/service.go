package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jsk-labs/label-sorter/internal/sorter"
)

// Service produces XLSX bytes summarizing a sort run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// SummaryXLSX returns a workbook with one sheet of output files and one sheet
// of pages needing attention (unparsed or flagged).
func (s *Service) SummaryXLSX(res *sorter.SortResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const filesSheet = "Files"
	const pagesSheet = "Pages"

	// excelize starts with a default sheet; rename it rather than leaving
	// an empty "Sheet1" in the workbook.
	if err := f.SetSheetName("Sheet1", filesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(pagesSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(filesSheet)
	f.SetActiveSheet(activeIndex)

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	headers := []string{"File", "Invoice Date", "Courier", "SKU", "Labels", "Disambiguated"}
	for i, h := range headers {
		write(filesSheet, i+1, 1, h)
	}
	row := 2
	for _, out := range res.Files {
		write(filesSheet, 1, row, out.Name)
		write(filesSheet, 2, row, out.Key.InvoiceDate)
		write(filesSheet, 3, row, out.Key.Courier)
		write(filesSheet, 4, row, out.Key.SKU)
		write(filesSheet, 5, row, out.PageCount)
		if out.Disambiguated {
			write(filesSheet, 6, row, "yes")
		}
		row++
	}

	pageHeaders := []string{"Page", "Status", "Detail"}
	for i, h := range pageHeaders {
		write(pagesSheet, i+1, 1, h)
	}
	row = 2
	for _, u := range res.Unparsed {
		write(pagesSheet, 1, row, u.PageIndex+1)
		write(pagesSheet, 2, row, "unparsed")
		write(pagesSheet, 3, row, u.Reason)
		row++
	}
	for _, fl := range res.Flags {
		write(pagesSheet, 1, row, fl.PageIndex+1)
		write(pagesSheet, 2, row, "flagged")
		write(pagesSheet, 3, row, fl.Flag)
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(filesSheet, "A", "A", 44)
	_ = f.SetColWidth(filesSheet, "B", "B", 14)
	_ = f.SetColWidth(filesSheet, "C", "D", 22)
	_ = f.SetColWidth(pagesSheet, "C", "C", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", res.RunID.String(),
		"files", len(res.Files),
		"pages_sheet_rows", len(res.Unparsed)+len(res.Flags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
