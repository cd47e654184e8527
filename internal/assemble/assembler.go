// Package assemble builds one output PDF per page group with deterministic,
// collision-free file names.
package assemble

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jsk-labs/label-sorter/internal/label"
)

// Assembler writes page-subset PDFs from a single source document.
type Assembler struct {
	source []byte
	logger *slog.Logger
}

func NewAssembler(source []byte, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{source: source, logger: logger}
}

// WriteGroup writes exactly the group's pages, in group order, to path.
func (a *Assembler) WriteGroup(group label.Group, path string) error {
	start := time.Now()

	// pdfcpu page selection is 1-based; Collect preserves the given order.
	selected := make([]string, len(group.Pages))
	for i, p := range group.Pages {
		selected[i] = strconv.Itoa(p + 1)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.Warn("assemble.close_error", "path", path, "error", cerr)
		}
	}()

	if err := api.Collect(bytes.NewReader(a.source), f, selected, nil); err != nil {
		return fmt.Errorf("collect pages into %s: %w", path, err)
	}

	a.logger.Debug("assemble.group.ok",
		"path", path,
		"pages", len(group.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
