package http

import (
	"github.com/gin-gonic/gin"
)

const DefaultAPIPrefix = "/api/v1"

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeaders())
	router.Use(CORS(cfg.AllowedOrigins))

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	api := router.Group(prefix)

	health := NewHealthController(cfg.Database, cfg.Version)
	api.GET("/health", health.Status)
	api.GET("/health/ping", health.Ping)

	if cfg.Books != nil {
		books := NewBooksController(cfg.Books)
		api.POST("/books", books.CreateBook)
		api.GET("/books", books.ListBooks)
		api.GET("/books/:id", books.GetBook)
		api.PUT("/books/:id", books.UpdateBook)
		api.DELETE("/books/:id", books.DeleteBook)
	}

	if cfg.Students != nil {
		students := NewStudentsController(cfg.Students, cfg.Issues)
		api.POST("/students", students.CreateStudent)
		api.GET("/students", students.ListStudents)
		api.GET("/students/:id", students.GetStudent)
		api.PUT("/students/:id", students.UpdateStudent)
		api.DELETE("/students/:id", students.DeleteStudent)
		if cfg.Issues != nil {
			api.GET("/students/:id/issued-books", students.IssuedBooks)
		}
	}

	if cfg.Issues != nil {
		issues := NewIssuesController(cfg.Issues)
		api.POST("/issues", issues.IssueBook)
		api.PUT("/issues/:id/return", issues.ReturnBook)
	}

	if cfg.Stats != nil {
		stats := NewStatsController(cfg.Stats)
		api.GET("/stats/collection", stats.Collection)
	}

	if cfg.Assistant != nil {
		assistant := NewAssistantController(cfg.Assistant)
		group := api.Group("/ai-assistant")
		if cfg.RateLimiter != nil {
			group.Use(cfg.RateLimiter.Middleware())
		}
		group.POST("/webhook", assistant.Webhook)
		group.POST("/streaming", assistant.Streaming)
	}

	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		api.GET("/audit/events", audit.GetAuditEvents)
	}

	return router
}
