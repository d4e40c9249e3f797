package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/glossary-backend/internal/http/handlers"
	httpMW "github.com/yungbote/glossary-backend/internal/http/middleware"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	ProjectHandler  *httpH.ProjectHandler
	DocumentHandler *httpH.DocumentHandler
	GlossaryHandler *httpH.GlossaryHandler
	RunHandler      *httpH.RunHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Projects
		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects", cfg.ProjectHandler.List)
			api.GET("/projects/:id", cfg.ProjectHandler.Get)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/projects/:id/documents", cfg.DocumentHandler.Upload)
			api.GET("/projects/:id/documents", cfg.DocumentHandler.List)
		}

		// Stage outputs
		if cfg.GlossaryHandler != nil {
			api.GET("/projects/:id/terms", cfg.GlossaryHandler.Terms)
			api.GET("/projects/:id/provisional", cfg.GlossaryHandler.Provisional)
			api.GET("/projects/:id/issues", cfg.GlossaryHandler.Issues)
			api.GET("/projects/:id/refined", cfg.GlossaryHandler.Refined)
		}

		// Runs
		if cfg.RunHandler != nil {
			api.POST("/projects/:id/runs", cfg.RunHandler.Start)
			api.GET("/projects/:id/runs", cfg.RunHandler.List)
			api.GET("/projects/:id/runs/active", cfg.RunHandler.Active)
			api.GET("/projects/:id/runs/:runID", cfg.RunHandler.Get)
			api.POST("/projects/:id/runs/:runID/cancel", cfg.RunHandler.Cancel)
			api.GET("/projects/:id/runs/:runID/events", cfg.RunHandler.Events)
		}
	}

	return r
}
