package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsk-labs/label-sorter/internal/archive"
	"github.com/jsk-labs/label-sorter/internal/common"
	"github.com/jsk-labs/label-sorter/internal/export"
	"github.com/jsk-labs/label-sorter/internal/history"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

// Handler serves the label sorting API.
type Handler struct {
	sorter         *sorter.Sorter
	exporter       *export.Service
	store          *history.Store // nil disables run history
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewHandler(s *sorter.Sorter, exporter *export.Service, store *history.Store, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	return &Handler{
		sorter:         s,
		exporter:       exporter,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sort handles POST /api/v1/sort: a multipart PDF upload is sorted into
// per-group files and returned as a ZIP (with a summary workbook), or as a
// JSON summary when ?format=json.
func (h *Handler) Sort(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
		return
	}

	source, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "READ_FAILED", "could not read upload")
		return
	}
	if int64(len(source)) > h.maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
		return
	}

	outputDir, err := os.MkdirTemp("", "labelsort-*")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "TMPDIR_FAILED", "could not allocate working directory")
		return
	}
	defer func() {
		if rerr := os.RemoveAll(outputDir); rerr != nil {
			h.logger.Warn("server.cleanup_error", "dir", outputDir, "error", rerr)
		}
	}()

	res, err := h.sorter.Sort(c.Request.Context(), source, outputDir)
	if err != nil {
		h.handleSortError(c, err)
		return
	}

	if h.store != nil {
		if err := h.store.SaveRun(c.Request.Context(), res); err != nil {
			h.logger.Warn("server.history_save_failed", "run_id", res.RunID, "error", err)
		}
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, res)
		return
	}

	var report []byte
	if h.exporter != nil {
		if report, err = h.exporter.SummaryXLSX(res); err != nil {
			h.logger.Warn("server.summary_export_failed", "run_id", res.RunID, "error", err)
			report = nil
		}
	}

	zipBytes, err := archive.BuildZip(res, report)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ARCHIVE_FAILED", "could not package sorted labels")
		return
	}

	c.Header("X-Run-Id", res.RunID.String())
	c.Header("X-Total-Pages", strconv.Itoa(res.TotalPages))
	c.Header("X-Unparsed-Pages", strconv.Itoa(len(res.Unparsed)))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sorted_labels_%s.zip"`, res.RunID))
	c.Data(http.StatusOK, "application/zip", zipBytes)
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusNotFound, "HISTORY_DISABLED", "run history is not enabled")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "HISTORY_FAILED", "could not list runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun handles GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		respondError(c, http.StatusNotFound, "HISTORY_DISABLED", "run history is not enabled")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_RUN_ID", "run id must be a UUID")
		return
	}
	run, files, err := h.store.GetRun(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", "no such run")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "HISTORY_FAILED", "could not load run")
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "files": files})
}

func (h *Handler) handleSortError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrEmptyDocument):
		respondError(c, http.StatusBadRequest, "EMPTY_SOURCE", "source document has zero pages")
	case errors.Is(err, common.ErrOutputDirUnwritable):
		respondError(c, http.StatusInternalServerError, "OUTPUT_DIR", "output directory is not writable")
	default:
		h.logger.Error("server.sort_failed", "error", err)
		respondError(c, http.StatusUnprocessableEntity, "SORT_FAILED", "could not sort the uploaded document")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
