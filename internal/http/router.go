package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/monaam/reviewflow-sub000/internal/http/handlers"
	httpMW "github.com/monaam/reviewflow-sub000/internal/http/middleware"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	Metrics         *observability.Metrics
	ServiceName     string
	TracingEnabled  bool
	CORSOrigins     []string
	ActorMiddleware *httpMW.ActorMiddleware

	AssetHandler    *httpH.AssetHandler
	CommentHandler  *httpH.CommentHandler
	TimelineHandler *httpH.TimelineHandler
	RequestHandler  *httpH.RequestHandler
	ProjectHandler  *httpH.ProjectHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "reviewflow"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	if cfg.ActorMiddleware != nil {
		api.Use(cfg.ActorMiddleware.RequireActor())
	}
	{
		// Projects
		if cfg.ProjectHandler != nil {
			api.GET("/projects/:id/members", cfg.ProjectHandler.ListMembers)
			api.PUT("/projects/:id/members/:userId", cfg.ProjectHandler.UpsertMember)
		}

		// Assets
		if cfg.AssetHandler != nil {
			api.POST("/projects/:id/assets", cfg.AssetHandler.Create)
			api.GET("/projects/:id/assets", cfg.AssetHandler.List)
			api.GET("/assets/:id", cfg.AssetHandler.Get)
			api.DELETE("/assets/:id", cfg.AssetHandler.Delete)
			api.GET("/assets/:id/versions", cfg.AssetHandler.ListVersions)
			api.POST("/assets/:id/versions", cfg.AssetHandler.UploadVersion)
			api.POST("/assets/:id/send-to-client", cfg.AssetHandler.SendToClient)
			api.POST("/assets/:id/approve", cfg.AssetHandler.Approve)
			api.POST("/assets/:id/request-revision", cfg.AssetHandler.RequestRevision)
			api.PUT("/assets/:id/lock", cfg.AssetHandler.SetLocked)
			api.PUT("/assets/:id/request", cfg.AssetHandler.LinkRequest)
		}

		// Timeline
		if cfg.TimelineHandler != nil {
			api.GET("/assets/:id/timeline", cfg.TimelineHandler.Get)
		}

		// Comments
		if cfg.CommentHandler != nil {
			api.POST("/assets/:id/comments", cfg.CommentHandler.Create)
			api.POST("/comments/media", cfg.CommentHandler.StageMedia)
			api.PATCH("/comments/:id/resolve", cfg.CommentHandler.SetResolved)
			api.DELETE("/comments/:id", cfg.CommentHandler.Delete)
		}

		// Requests
		if cfg.RequestHandler != nil {
			api.POST("/projects/:id/requests", cfg.RequestHandler.Create)
			api.GET("/requests/:id", cfg.RequestHandler.Get)
			api.PUT("/requests/:id/assignee", cfg.RequestHandler.Assign)
			api.PUT("/requests/:id/status", cfg.RequestHandler.ChangeStatus)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.RespondError(c, http.StatusNotFound, "route_not_found", fmt.Errorf("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	return r
}
