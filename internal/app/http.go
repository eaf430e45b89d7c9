package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/monaam/reviewflow-sub000/internal/http"
	httpH "github.com/monaam/reviewflow-sub000/internal/http/handlers"
	httpMW "github.com/monaam/reviewflow-sub000/internal/http/middleware"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type Middleware struct {
	Actor *httpMW.ActorMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Asset    *httpH.AssetHandler
	Comment  *httpH.CommentHandler
	Timeline *httpH.TimelineHandler
	Request  *httpH.RequestHandler
	Project  *httpH.ProjectHandler
}

func readinessChecks(db *gorm.DB, clients Clients) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{
		"database": httpH.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if clients.Redis != nil {
		checks["redis"] = httpH.PingFunc(func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		})
	}
	return checks
}

func wireHandlers(log *logger.Logger, services Services, checks map[string]httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(checks),
		Asset:    httpH.NewAssetHandler(log, services.Assets),
		Comment:  httpH.NewCommentHandler(log, services.Comments),
		Timeline: httpH.NewTimelineHandler(services.Timeline),
		Request:  httpH.NewRequestHandler(services.Requests),
		Project:  httpH.NewProjectHandler(services.Projects),
	}
}

func wireMiddleware(log *logger.Logger) Middleware {
	return Middleware{Actor: httpMW.NewActorMiddleware(log)}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     cfg.Otel.ServiceName,
		TracingEnabled:  cfg.Otel.Enabled,
		CORSOrigins:     cfg.CORSOrigins,
		ActorMiddleware: middleware.Actor,
		AssetHandler:    handlers.Asset,
		CommentHandler:  handlers.Comment,
		TimelineHandler: handlers.Timeline,
		RequestHandler:  handlers.Request,
		ProjectHandler:  handlers.Project,
		HealthHandler:   handlers.Health,
	})
}
