// Package handler exposes the exam platform's HTTP endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/response"
	"github.com/maruf7705/80MCQ/internal/store"
	"github.com/maruf7705/80MCQ/internal/validator"
)

// SubmissionHandler handles graded submission endpoints.
type SubmissionHandler struct {
	answers *store.Answers
	log     zerolog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(answers *store.Answers, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		answers: answers,
		log:     log.With().Str("component", "submission_handler").Logger(),
	}
}

// SaveAnswer godoc
// POST /api/save-answer
// Appends a graded submission; collision-suffixes the student name.
func (h *SubmissionHandler) SaveAnswer(c *gin.Context) {
	var sub model.Submission
	if fields := validator.Bind(c, &sub); fields != nil {
		response.Err(c, http.StatusBadRequest, "studentName required")
		return
	}

	saved, renamed, err := h.answers.Append(c.Request.Context(), sub)
	if err != nil {
		h.log.Error().Err(err).Str("student", sub.StudentName).Msg("save answer failed")
		response.Err(c, http.StatusInternalServerError, "Failed to save answer")
		return
	}

	c.JSON(http.StatusOK, model.SaveSubmissionResult{
		Success:    true,
		SavedName:  saved.StudentName,
		WasRenamed: renamed,
	})
}

// DeleteAnswer godoc
// POST /api/delete-answer
// Removes one submission identified by studentName + timestamp.
func (h *SubmissionHandler) DeleteAnswer(c *gin.Context) {
	var req model.DeleteSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.Err(c, http.StatusBadRequest, "studentName and timestamp required")
		return
	}

	err := h.answers.DeleteOne(c.Request.Context(), req.StudentName, req.Timestamp)
	if errors.Is(err, store.ErrNotFound) {
		response.Err(c, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("student", req.StudentName).Msg("delete answer failed")
		response.Err(c, http.StatusInternalServerError, "Failed to delete answer")
		return
	}
	response.OK(c)
}

// DeleteStudent godoc
// POST /api/delete-student
// Removes every submission stored for a student.
func (h *SubmissionHandler) DeleteStudent(c *gin.Context) {
	var req model.DeleteStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.Err(c, http.StatusBadRequest, "studentName required")
		return
	}

	err := h.answers.DeleteStudent(c.Request.Context(), req.StudentName)
	if errors.Is(err, store.ErrNotFound) {
		response.Err(c, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("student", req.StudentName).Msg("delete student failed")
		response.Err(c, http.StatusInternalServerError, "Failed to delete student submissions")
		return
	}
	response.OK(c)
}

// ListAnswers godoc
// GET /api/answers
// Returns every stored submission for the admin dashboard.
func (h *SubmissionHandler) ListAnswers(c *gin.Context) {
	subs, err := h.answers.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list answers failed")
		response.Err(c, http.StatusInternalServerError, "Failed to load answers")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	c.JSON(http.StatusOK, subs)
}
