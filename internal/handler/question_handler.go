package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/response"
	"github.com/maruf7705/80MCQ/internal/service"
)

// QuestionHandler handles the question file catalog endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListFiles godoc
// GET /api/list-question-files
// Lists every question set with its display name.
func (h *QuestionHandler) ListFiles(c *gin.Context) {
	files, err := h.questionService.ListFiles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list question files failed")
		response.ErrDetails(c, http.StatusInternalServerError, "Failed to list question files", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// LatestQuestions godoc
// GET /api/get-latest-questions
// Reports the highest-versioned question set.
func (h *QuestionHandler) LatestQuestions(c *gin.Context) {
	file, version, err := h.questionService.LatestFile(c.Request.Context())
	if errors.Is(err, service.ErrNoFiles) {
		response.Err(c, http.StatusNotFound, "No question files found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("find latest questions failed")
		response.Err(c, http.StatusInternalServerError, "Failed to find latest questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file, "version": version})
}

// GetActiveFile godoc
// GET /api/get-active-question-file
// Always answers 200; any config problem degrades to the default set.
func (h *QuestionHandler) GetActiveFile(c *gin.Context) {
	c.JSON(http.StatusOK, h.questionService.ActiveFile(c.Request.Context()))
}

// SetActiveFile godoc
// POST /api/set-active-question-file
// Validates the file and records it as the active exam.
func (h *QuestionHandler) SetActiveFile(c *gin.Context) {
	var req model.SetActiveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileName == "" {
		response.Err(c, http.StatusBadRequest, "Invalid file name")
		return
	}

	err := h.questionService.SetActiveFile(c.Request.Context(), req.FileName)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "activeFile": req.FileName})
	case errors.Is(err, service.ErrNotJSON):
		response.Err(c, http.StatusBadRequest, "File must be a JSON file")
	case errors.Is(err, service.ErrFileNotFound):
		response.Err(c, http.StatusNotFound, "Question file not found")
	case errors.Is(err, service.ErrInvalidFormat):
		response.Err(c, http.StatusBadRequest, "Invalid question file format - must be an array")
	case errors.Is(err, service.ErrEmptyFile):
		response.Err(c, http.StatusBadRequest, "Question file is empty")
	case errors.Is(err, service.ErrInvalidFile):
		response.Err(c, http.StatusBadRequest, "Invalid JSON file")
	default:
		h.log.Error().Err(err).Str("file", req.FileName).Msg("set active question file failed")
		response.ErrDetails(c, http.StatusInternalServerError, "Failed to update config", err.Error())
	}
}
