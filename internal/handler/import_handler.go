package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/du-marcomm/scholarship-sync/internal/model"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
	"github.com/du-marcomm/scholarship-sync/internal/response"
	"github.com/du-marcomm/scholarship-sync/internal/service"
	"github.com/du-marcomm/scholarship-sync/internal/validator"
)

type ImportHandler struct {
	importService *service.ImportService
	feedService   *service.FeedService
	scholarships  repository.ScholarshipRepository
}

func NewImportHandler(
	importService *service.ImportService,
	feedService *service.FeedService,
	scholarships repository.ScholarshipRepository,
) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		feedService:   feedService,
		scholarships:  scholarships,
	}
}

// RunImport godoc
// POST /api/v1/admin/import/run
//
// Fetches the remote feed and queues one full import cycle.
func (h *ImportHandler) RunImport(c *gin.Context) {
	queued, total, err := h.importService.QueueFromFeed(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrAPIURLNotConfigured) {
			response.Fail(c, http.StatusConflict, response.ErrAPIURLMissing)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrAPIUnavailable)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": queued, "total": total})
}

// ManualImport godoc
// POST /api/v1/admin/import/manual
//
// Queues operator-pasted JSON. Bypasses the feed entirely; archival still
// only happens on feed cycles.
func (h *ImportHandler) ManualImport(c *gin.Context) {
	var req model.ManualImportRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	queued, err := h.importService.QueueManual(c.Request.Context(), req.JSON)
	if err != nil {
		if errors.Is(err, service.ErrInvalidManualJSON) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidImportJSON)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if queued == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrNothingQueued)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": queued})
}

// TestAPI godoc
// GET /api/v1/admin/import/test
//
// Probes the feed and echoes what it returns, for verifying credentials
// without touching the queue.
func (h *ImportHandler) TestAPI(c *gin.Context) {
	items, err := h.feedService.GetScholarships(c.Request.Context())
	if err != nil {
		response.Success(c, http.StatusOK, gin.H{"status": "failed", "detail": err.Error()})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item_count": len(items), "items": items})
}

// RemoveTimestamps godoc
// POST /api/v1/admin/import/timestamps/remove
//
// Clears the recorded import time from all scholarships or a single one.
func (h *ImportHandler) RemoveTimestamps(c *gin.Context) {
	var req model.RemoveTimestampsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if req.Scope == "single" && req.Code == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"code": "the scholarship code must be provided"})
		return
	}

	var (
		cleared int64
		err     error
	)
	if req.Scope == "all" {
		cleared, err = h.scholarships.ClearImportStamps(c.Request.Context())
	} else {
		cleared, err = h.scholarships.ClearImportStampByCode(c.Request.Context(), req.Code)
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cleared": cleared})
}
