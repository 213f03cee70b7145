package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/response"
	"github.com/maruf7705/80MCQ/internal/store"
	"github.com/maruf7705/80MCQ/internal/validator"
)

// PendingHandler handles the pending-student (currently taking exam) endpoints.
type PendingHandler struct {
	pending *store.Pending
	log     zerolog.Logger
}

// NewPendingHandler creates a PendingHandler.
func NewPendingHandler(pending *store.Pending, log zerolog.Logger) *PendingHandler {
	return &PendingHandler{
		pending: pending,
		log:     log.With().Str("component", "pending_handler").Logger(),
	}
}

// SavePending godoc
// POST /api/save-pending-student
// Heartbeat: inserts or refreshes the student's pending record.
func (h *PendingHandler) SavePending(c *gin.Context) {
	var req model.SavePendingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.Err(c, http.StatusBadRequest, "studentName required")
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			response.Err(c, http.StatusBadRequest, "Invalid timestamp")
			return
		}
		ts = parsed
	}

	if err := h.pending.Upsert(c.Request.Context(), req.StudentName, ts); err != nil {
		h.log.Error().Err(err).Str("student", req.StudentName).Msg("save pending student failed")
		response.Err(c, http.StatusInternalServerError, "Failed to save pending student")
		return
	}
	response.OK(c)
}

// RemovePending godoc
// POST /api/remove-pending-student
// Removes a student from the pending list. A missing store file or an
// unknown name both succeed; the goal state is "not listed".
func (h *PendingHandler) RemovePending(c *gin.Context) {
	var req model.RemovePendingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.Err(c, http.StatusBadRequest, "studentName required")
		return
	}

	if err := h.pending.Remove(c.Request.Context(), req.StudentName); err != nil {
		h.log.Error().Err(err).Str("student", req.StudentName).Msg("remove pending student failed")
		response.Err(c, http.StatusInternalServerError, "Failed to remove pending student")
		return
	}
	response.OK(c)
}

// ListPending godoc
// GET /api/pending-students
// Returns the current pending list for the admin panel.
func (h *PendingHandler) ListPending(c *gin.Context) {
	students, err := h.pending.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list pending students failed")
		response.Err(c, http.StatusInternalServerError, "Failed to load pending students")
		return
	}
	if students == nil {
		students = []model.PendingStudent{}
	}
	c.JSON(http.StatusOK, students)
}
