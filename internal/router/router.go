// Package router wires the HTTP surface together.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/maruf7705/80MCQ/internal/config"
	"github.com/maruf7705/80MCQ/internal/handler"
	"github.com/maruf7705/80MCQ/internal/middleware"
	"github.com/maruf7705/80MCQ/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Submission *handler.SubmissionHandler
	Pending    *handler.PendingHandler
	Question   *handler.QuestionHandler
	Monitor    *handler.MonitorHandler
}

// SetupRouter configures the Gin engine, CORS and all routes.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Wrong method on a known route answers the same flat error body.
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		response.Err(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Mutations share a per-IP limiter; the heartbeat fires at most every
	// five minutes per student, so 60/min is generous headroom.
	writeLimiter := middleware.NewRateLimiter(60, time.Minute)

	api := router.Group("/api")
	api.Use(middleware.NoCache())
	{
		writes := api.Group("")
		writes.Use(writeLimiter.Middleware())
		{
			writes.POST("/save-answer", handlers.Submission.SaveAnswer)
			writes.POST("/delete-answer", handlers.Submission.DeleteAnswer)
			writes.POST("/delete-student", handlers.Submission.DeleteStudent)
			writes.POST("/save-pending-student", handlers.Pending.SavePending)
			writes.POST("/remove-pending-student", handlers.Pending.RemovePending)
			writes.POST("/set-active-question-file", handlers.Question.SetActiveFile)
		}

		api.GET("/answers", handlers.Submission.ListAnswers)
		api.GET("/pending-students", handlers.Pending.ListPending)
		api.GET("/list-question-files", handlers.Question.ListFiles)
		api.GET("/get-latest-questions", handlers.Question.LatestQuestions)
		api.GET("/get-active-question-file", handlers.Question.GetActiveFile)
	}

	router.GET("/ws/pending-students", handlers.Monitor.PendingStream)

	// The exam client fetches question set files directly; no caching so a
	// re-uploaded set takes effect immediately.
	if cfg.QuestionsDir != "" {
		questions := router.Group("/questions", middleware.NoCache())
		questions.Static("/", cfg.QuestionsDir)
	}

	return router
}
