package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/glossary-backend/internal/http/response"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
	"github.com/yungbote/glossary-backend/internal/realtime"
	"github.com/yungbote/glossary-backend/internal/services"
)

type RunHandler struct {
	log       *logger.Logger
	runs      services.RunService
	hub       *realtime.Hub
	keepalive time.Duration
}

func NewRunHandler(log *logger.Logger, runs services.RunService, hub *realtime.Hub, keepalive time.Duration) *RunHandler {
	return &RunHandler{
		log:       log.With("handler", "RunHandler"),
		runs:      runs,
		hub:       hub,
		keepalive: keepalive,
	}
}

type startRunRequest struct {
	Scope string `json:"scope"`
}

// POST /api/projects/:id/runs
func (h *RunHandler) Start(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	runID, err := h.runs.Start(c.Request.Context(), projectID, req.Scope)
	if err != nil {
		response.RespondServiceError(c, err, "start_run_failed")
		return
	}
	response.RespondAccepted(c, gin.H{"run_id": runID})
}

// GET /api/projects/:id/runs
func (h *RunHandler) List(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.runs.List(requestDBC(c), projectID, limit)
	if err != nil {
		response.RespondServiceError(c, err, "list_runs_failed")
		return
	}
	response.RespondOK(c, gin.H{"runs": list})
}

// GET /api/projects/:id/runs/active
func (h *RunHandler) Active(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	run, err := h.runs.Active(c.Request.Context(), projectID)
	if err != nil {
		response.RespondServiceError(c, err, "load_active_run_failed")
		return
	}
	if run == nil {
		c.Status(http.StatusNoContent)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// GET /api/projects/:id/runs/:runID
func (h *RunHandler) Get(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "runID")
	if !ok {
		return
	}
	run, err := h.runs.Get(requestDBC(c), projectID, runID)
	if err != nil {
		response.RespondServiceError(c, err, "load_run_failed")
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// POST /api/projects/:id/runs/:runID/cancel
func (h *RunHandler) Cancel(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "runID")
	if !ok {
		return
	}
	if err := h.runs.Cancel(c.Request.Context(), projectID, runID); err != nil {
		response.RespondServiceError(c, err, "cancel_run_failed")
		return
	}
	response.RespondAccepted(c, gin.H{"run_id": runID, "cancel_requested": true})
}

// GET /api/projects/:id/runs/:runID/events
func (h *RunHandler) Events(c *gin.Context) {
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "runID")
	if !ok {
		return
	}
	events, release, err := h.runs.OpenStream(c.Request.Context(), projectID, runID)
	if err != nil {
		response.RespondServiceError(c, err, "subscribe_failed")
		return
	}
	defer release()

	h.log.Debug("Event stream opened", "project_id", projectID, "run_id", runID)
	h.hub.StreamEvents(c.Writer, c.Request, events, h.keepalive)
	h.log.Debug("Event stream closed", "project_id", projectID, "run_id", runID)
}
