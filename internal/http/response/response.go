package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monaam/reviewflow-sub000/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	env := ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
	if c.Request != nil {
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			env.Error.RequestID = td.RequestID
		}
	}
	c.AbortWithStatusJSON(status, env)
}

// RespondError writes a transport-level failure that never reached a service.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeError(c, status, code, msg)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
