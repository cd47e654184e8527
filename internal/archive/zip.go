// Package archive packages sorted label files for delivery.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsk-labs/label-sorter/internal/sorter"
)

// SummaryFileName is the workbook entry added alongside the sorted PDFs.
const SummaryFileName = "summary.xlsx"

// BuildZip packages a run's output files into a ZIP, in group emission order
// so archives for identical inputs are byte-stable. A non-nil report is added
// as SummaryFileName.
func BuildZip(res *sorter.SortResult, report []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, out := range res.Files {
		data, err := os.ReadFile(filepath.Join(res.OutputDir, out.Name))
		if err != nil {
			return nil, fmt.Errorf("read output %s: %w", out.Name, err)
		}
		w, err := zw.Create(out.Name)
		if err != nil {
			return nil, fmt.Errorf("zip create %s: %w", out.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip write %s: %w", out.Name, err)
		}
	}

	if report != nil {
		w, err := zw.Create(SummaryFileName)
		if err != nil {
			return nil, fmt.Errorf("zip create summary: %w", err)
		}
		if _, err := w.Write(report); err != nil {
			return nil, fmt.Errorf("zip write summary: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), nil
}
