package sorter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsk-labs/label-sorter/constants"
	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/label"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

// fakeSource serves canned page text; an empty string means an unreadable page.
type fakeSource struct {
	pages []string
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) PageText(pageIndex int) (string, error) {
	if f.pages[pageIndex] == "" {
		return "", fmt.Errorf("page %d: %w", pageIndex, common.ErrUnreadablePage)
	}
	return f.pages[pageIndex], nil
}

// recordingWriter captures groups instead of writing PDFs.
type recordingWriter struct {
	mu     sync.Mutex
	groups []label.Group
	paths  []string
}

func (w *recordingWriter) WriteGroup(group label.Group, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups = append(w.groups, group)
	w.paths = append(w.paths, path)
	return nil
}

func labelText(courier, sku, date string) string {
	return fmt.Sprintf("%s\nSKU: %s\nInvoice Date: %s\n", courier, sku, date)
}

func newSorter(workers int) *sorter.Sorter {
	return sorter.New(sorter.Config{Workers: workers}, label.NewParser(nil), nil)
}

func TestSort_ScenarioA_TwoGroups(t *testing.T) {
	src := &fakeSource{pages: []string{
		labelText("Ekart", "SKU-1", "2026-01-17"),
		labelText("Ekart", "SKU-1", "2026-01-17"),
		labelText("Delhivery", "SKU-1", "2026-01-17"),
	}}
	w := &recordingWriter{}
	out := t.TempDir()

	res, err := newSorter(1).SortDocument(context.Background(), src, w, out)
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "2026-01-17_Ekart_SKU-1.pdf", res.Files[0].Name)
	assert.Equal(t, 2, res.Files[0].PageCount)
	assert.Equal(t, "2026-01-17_Delhivery_SKU-1.pdf", res.Files[1].Name)
	assert.Equal(t, 1, res.Files[1].PageCount)

	require.Len(t, w.groups, 2)
	assert.Equal(t, []int{0, 1}, w.groups[0].Pages)
	assert.Equal(t, []int{2}, w.groups[1].Pages)
	assert.Equal(t, filepath.Join(out, "2026-01-17_Ekart_SKU-1.pdf"), w.paths[0])
}

func TestSort_ScenarioB_UnknownCourierStillGrouped(t *testing.T) {
	src := &fakeSource{pages: []string{
		"no courier branding here\nSKU: A-1\nInvoice Date: 2026-01-17",
	}}
	w := &recordingWriter{}

	res, err := newSorter(1).SortDocument(context.Background(), src, w, t.TempDir())
	require.NoError(t, err)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "2026-01-17_Unknown_A-1.pdf", res.Files[0].Name)
	assert.Contains(t, res.Flags, sorter.PageFlag{PageIndex: 0, Flag: constants.FlagUnknownCourier})
	assert.Empty(t, res.Unparsed)
}

func TestSort_ScenarioC_UnreadablePageRecovered(t *testing.T) {
	src := &fakeSource{pages: []string{
		labelText("Ekart", "SKU-1", "2026-01-17"),
		"", // unreadable
		labelText("Ekart", "SKU-1", "2026-01-17"),
	}}
	w := &recordingWriter{}

	res, err := newSorter(1).SortDocument(context.Background(), src, w, t.TempDir())
	require.NoError(t, err)

	require.Len(t, res.Unparsed, 1)
	assert.Equal(t, 1, res.Unparsed[0].PageIndex)
	assert.Equal(t, constants.ReasonUnreadablePage, res.Unparsed[0].Reason)

	require.Len(t, res.Files, 1)
	assert.Equal(t, 2, res.Files[0].PageCount)
	require.Len(t, w.groups, 1)
	assert.Equal(t, []int{0, 2}, w.groups[0].Pages)
}

func TestSort_ScenarioD_EmptySourceFatal(t *testing.T) {
	src := &fakeSource{}
	w := &recordingWriter{}

	_, err := newSorter(1).SortDocument(context.Background(), src, w, t.TempDir())
	require.ErrorIs(t, err, common.ErrEmptyDocument)
	assert.Empty(t, w.groups, "no files written")
}

func TestSort_RoundTrip_EveryParsedPageExactlyOnce(t *testing.T) {
	var pages []string
	for i := 0; i < 20; i++ {
		courier := constants.Couriers[i%len(constants.Couriers)]
		pages = append(pages, labelText(courier, fmt.Sprintf("SKU-%d", i%3), "2026-01-17"))
	}
	src := &fakeSource{pages: pages}
	w := &recordingWriter{}

	res, err := newSorter(1).SortDocument(context.Background(), src, w, t.TempDir())
	require.NoError(t, err)

	seen := map[int]int{}
	for _, g := range w.groups {
		for _, idx := range g.Pages {
			seen[idx]++
		}
	}
	require.Len(t, seen, 20)
	for idx, n := range seen {
		assert.Equal(t, 1, n, "page %d", idx)
	}
	assert.Equal(t, 20, res.GroupedPages())
	assert.Equal(t, 20, res.TotalPages)
}

func TestSort_ParallelMatchesSequential(t *testing.T) {
	var pages []string
	for i := 0; i < 50; i++ {
		courier := constants.Couriers[i%3]
		pages = append(pages, labelText(courier, fmt.Sprintf("SKU-%d", i%5), "2026-01-17"))
	}

	run := func(workers int) []label.Group {
		w := &recordingWriter{}
		_, err := newSorter(workers).SortDocument(context.Background(), &fakeSource{pages: pages}, w, t.TempDir())
		require.NoError(t, err)
		return w.groups
	}

	sequential := run(1)
	parallel := run(8)
	assert.Equal(t, sequential, parallel, "group order and membership must not depend on completion order")
}

func TestSort_MultiItemPageFlagged(t *testing.T) {
	src := &fakeSource{pages: []string{
		"Ekart\nSKU: A-1\nSKU: B-2\nInvoice Date: 2026-01-17",
	}}
	w := &recordingWriter{}

	res, err := newSorter(1).SortDocument(context.Background(), src, w, t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, res.Flags, sorter.PageFlag{PageIndex: 0, Flag: constants.FlagMultiItem})
	require.Len(t, res.Files, 1)
	assert.Equal(t, "2026-01-17_Ekart_A-1.pdf", res.Files[0].Name, "first SKU wins the key")
}

func TestSort_UnwritableOutputDirFatal(t *testing.T) {
	src := &fakeSource{pages: []string{labelText("Ekart", "X", "2026-01-17")}}
	w := &recordingWriter{}

	// A file path cannot become a directory.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, err := newSorter(1).SortDocument(context.Background(), src, w, filepath.Join(blocked, "out"))
	require.ErrorIs(t, err, common.ErrOutputDirUnwritable)
	assert.Empty(t, w.groups)
}
