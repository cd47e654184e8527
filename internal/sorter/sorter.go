// Package sorter drives the label sorting pipeline: extract page text, parse
// fields, group pages, and assemble one output PDF per group.
package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsk-labs/label-sorter/constants"
	"github.com/jsk-labs/label-sorter/internal/assemble"
	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/label"
	"github.com/jsk-labs/label-sorter/internal/pdfio"
)

// PageSource yields per-page text from an opened source document.
type PageSource interface {
	PageCount() int
	PageText(pageIndex int) (string, error)
}

// GroupWriter writes one group's pages as an output document.
type GroupWriter interface {
	WriteGroup(group label.Group, path string) error
}

// Config holds sorting behavior settings.
type Config struct {
	Workers int // parse parallelism; <=1 means sequential
}

// Sorter coordinates one run over one source document. All run state lives in
// the invocation, so concurrent runs over different documents never interfere.
type Sorter struct {
	cfg    Config
	parser *label.Parser
	logger *slog.Logger
}

func New(cfg Config, parser *label.Parser, logger *slog.Logger) *Sorter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if parser == nil {
		parser = label.NewParser(nil)
	}
	return &Sorter{cfg: cfg, parser: parser, logger: logger}
}

// Sort runs the full pipeline over a source PDF and writes one file per group
// under outputDir.
func (s *Sorter) Sort(ctx context.Context, source []byte, outputDir string) (*SortResult, error) {
	doc, err := pdfio.Open(source, s.logger)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return s.SortDocument(ctx, doc, assemble.NewAssembler(source, s.logger), outputDir)
}

// SortDocument is Sort with the document and writer supplied by the caller.
// Fatal preconditions (empty source, unwritable output directory) are checked
// before any per-page work; every per-page failure is recovered and recorded.
func (s *Sorter) SortDocument(ctx context.Context, src PageSource, writer GroupWriter, outputDir string) (*SortResult, error) {
	start := time.Now()

	total := src.PageCount()
	if total == 0 {
		return nil, common.NewAppError("EMPTY_SOURCE", "source document has zero pages", common.ErrEmptyDocument)
	}
	if err := ensureWritableDir(outputDir); err != nil {
		return nil, common.NewAppError("OUTPUT_DIR", fmt.Sprintf("cannot write to %s", outputDir), err)
	}

	res := &SortResult{
		RunID:      uuid.New(),
		TotalPages: total,
		OutputDir:  outputDir,
		StartedAt:  start.UTC(),
	}
	s.logger.Info("sort.start", "run_id", res.RunID, "pages", total, "output_dir", outputDir, "workers", s.cfg.Workers)

	pages, unparsed := s.parsePages(ctx, src, total)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sort canceled: %w", err)
	}
	res.Unparsed = unparsed
	for _, page := range pages {
		for _, flag := range page.Flags() {
			res.Flags = append(res.Flags, PageFlag{PageIndex: page.PageIndex, Flag: flag})
		}
	}

	groups := label.GroupPages(pages)
	s.logger.Info("sort.grouped", "run_id", res.RunID, "groups", len(groups), "unparsed", len(unparsed))

	namer := assemble.NewNamer()
	for _, group := range groups {
		name, disambiguated := namer.Name(group.Key)
		if disambiguated {
			s.logger.Warn("sort.name.disambiguated", "run_id", res.RunID, "name", name, "key", group.Key)
		}
		if err := writer.WriteGroup(group, filepath.Join(outputDir, name)); err != nil {
			return nil, fmt.Errorf("write group %s: %w", name, err)
		}
		res.Files = append(res.Files, OutputFile{
			Name:          name,
			Key:           group.Key,
			PageCount:     len(group.Pages),
			Disambiguated: disambiguated,
		})
	}

	res.Duration = time.Since(start)
	s.logger.Info("sort.ok",
		"run_id", res.RunID,
		"files", len(res.Files),
		"grouped_pages", res.GroupedPages(),
		"unparsed", len(res.Unparsed),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// parsePages extracts and parses every page. Failures never abort the run;
// the page is recorded as unparsed with a reason instead. Results come back
// in ascending page-index order regardless of worker completion order,
// because grouping depends on encounter order.
func (s *Sorter) parsePages(ctx context.Context, src PageSource, total int) ([]label.ParsedPage, []UnparsedPage) {
	type outcome struct {
		done     bool
		page     label.ParsedPage
		unparsed *UnparsedPage
	}

	parseOne := func(i int) outcome {
		text, err := src.PageText(i)
		if err != nil {
			s.logger.Warn("sort.page.unparsed", "page_index", i, "error", err)
			return outcome{done: true, unparsed: &UnparsedPage{PageIndex: i, Reason: reasonFor(err)}}
		}
		return outcome{done: true, page: s.parser.Parse(i, text)}
	}

	outcomes := make([]outcome, total)
	if s.cfg.Workers <= 1 {
		for i := 0; i < total; i++ {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = parseOne(i)
		}
	} else {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < s.cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					outcomes[i] = parseOne(i)
				}
			}()
		}
		for i := 0; i < total; i++ {
			if ctx.Err() != nil {
				break
			}
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}

	var pages []label.ParsedPage
	var unparsed []UnparsedPage
	for _, o := range outcomes {
		switch {
		case !o.done: // skipped due to cancellation
		case o.unparsed != nil:
			unparsed = append(unparsed, *o.unparsed)
		default:
			pages = append(pages, o.page)
		}
	}
	sort.Slice(pages, func(a, b int) bool { return pages[a].PageIndex < pages[b].PageIndex })
	return pages, unparsed
}

// reasonFor maps a page error onto its summary reason.
func reasonFor(err error) string {
	if errors.Is(err, common.ErrUnreadablePage) {
		return constants.ReasonUnreadablePage
	}
	return err.Error()
}

// ensureWritableDir creates the directory if needed and probes it with a
// throwaway file, so unwritable targets fail before any page is processed.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", common.ErrOutputDirUnwritable, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOutputDirUnwritable, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
