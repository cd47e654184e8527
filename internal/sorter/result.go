package sorter

import (
	"time"

	"github.com/google/uuid"

	"github.com/jsk-labs/label-sorter/internal/label"
)

// OutputFile describes one written group document.
type OutputFile struct {
	Name          string         `json:"name"`
	Key           label.GroupKey `json:"key"`
	PageCount     int            `json:"page_count"`
	Disambiguated bool           `json:"disambiguated,omitempty"`
}

// UnparsedPage records a page excluded from grouping, with the reason.
type UnparsedPage struct {
	PageIndex int    `json:"page_index"`
	Reason    string `json:"reason"`
}

// PageFlag marks a grouped page as low-confidence in some respect.
type PageFlag struct {
	PageIndex int    `json:"page_index"`
	Flag      string `json:"flag"`
}

// SortResult summarizes one run. Immutable after creation; every page of the
// source appears either in Files (via its group) or in Unparsed, never
// silently dropped.
type SortResult struct {
	RunID      uuid.UUID      `json:"run_id"`
	TotalPages int            `json:"total_pages"`
	OutputDir  string         `json:"output_dir"`
	Files      []OutputFile   `json:"files"`
	Unparsed   []UnparsedPage `json:"unparsed"`
	Flags      []PageFlag     `json:"flags"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration"`
}

// GroupedPages returns the number of pages that made it into output files.
func (r *SortResult) GroupedPages() int {
	n := 0
	for _, f := range r.Files {
		n += f.PageCount
	}
	return n
}
