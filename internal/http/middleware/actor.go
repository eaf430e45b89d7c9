package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/platform/ctxutil"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

// Headers set by the gateway after it has authenticated the caller.
const (
	HeaderActorID       = "X-Actor-Id"
	HeaderActorRole     = "X-Actor-Role"
	HeaderActorProjects = "X-Actor-Projects"
)

type ActorMiddleware struct {
	log *logger.Logger
}

func NewActorMiddleware(log *logger.Logger) *ActorMiddleware {
	return &ActorMiddleware{log: log.With("Middleware", "ActorMiddleware")}
}

// RequireActor attaches the gateway-asserted actor to the request context.
func (am *ActorMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd, code := parseActor(c)
		if code != "" {
			am.log.Debug("actor rejected", append(ctxutil.TraceFields(c.Request.Context()), "reason", code)...)
			c.Abort()
			response.Error(c, apierr.Unauthorized(code))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func parseActor(c *gin.Context) (*ctxutil.RequestData, string) {
	userID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(HeaderActorID)))
	if err != nil || userID == uuid.Nil {
		return nil, "missing_actor"
	}
	role, ok := review.ParseRole(c.GetHeader(HeaderActorRole))
	if !ok {
		return nil, "invalid_actor_role"
	}
	projects, ok := parseProjectIDs(c.GetHeader(HeaderActorProjects))
	if !ok {
		return nil, "invalid_actor_projects"
	}
	return &ctxutil.RequestData{UserID: userID, Role: string(role), ProjectIDs: projects}, ""
}

func parseProjectIDs(raw string) ([]uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	out := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}
