package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
)

// StatusFor maps an aggregate error code to an HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodePreconditionFailed, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorEnvelope. Transport errors carry their own status;
// aggregate errors are mapped by code. Internal causes are never echoed.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	if ae, ok := apierr.From(err); ok {
		writeError(c, ae.Status, ae.Code, ae.Message())
		return
	}

	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	msg := domainagg.MessageOf(err)
	if code == domainagg.CodeInternal {
		msg = "internal error"
	}
	writeError(c, status, string(code), msg)
}
