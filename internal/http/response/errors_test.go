package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/platform/ctxutil"
)

func TestStatusFor(t *testing.T) {
	cases := map[domainagg.ErrorCode]int{
		domainagg.CodeValidation:         http.StatusBadRequest,
		domainagg.CodeForbidden:          http.StatusForbidden,
		domainagg.CodeNotFound:           http.StatusNotFound,
		domainagg.CodePreconditionFailed: http.StatusConflict,
		domainagg.CodeConflict:           http.StatusConflict,
		domainagg.CodeInvariantViolation: http.StatusUnprocessableEntity,
		domainagg.CodeRetryable:          http.StatusServiceUnavailable,
		domainagg.CodeInternal:           http.StatusInternalServerError,
		"":                               http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Fatalf("StatusFor(%q): want=%d got=%d", code, want, got)
		}
	}
}

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "aggregate message",
			err:     domainagg.NewError(domainagg.CodePreconditionFailed, "Review.Asset.Approve", "asset is locked", nil),
			status:  http.StatusConflict,
			code:    "precondition_failed",
			message: "asset is locked",
		},
		{
			name:    "internal cause hidden",
			err:     domainagg.NewError(domainagg.CodeInternal, "op", "load asset", errors.New("dial tcp 10.0.0.1:5432")),
			status:  http.StatusInternalServerError,
			code:    "internal",
			message: "internal error",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    "internal",
			message: "internal error",
		},
		{
			name:    "transport error",
			err:     apierr.BadRequest("invalid_asset_id", errors.New("invalid UUID length: 3")),
			status:  http.StatusBadRequest,
			code:    "invalid_asset_id",
			message: "invalid UUID length: 3",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			Error(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code || env.Error.Message != tc.message {
				t.Fatalf("envelope: want=%s/%q got=%s/%q", tc.code, tc.message, env.Error.Code, env.Error.Message)
			}
		})
	}
}

func TestErrorEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodGet, "/api/assets/x", nil)
	c.Request = req.WithContext(ctxutil.WithTraceData(req.Context(), &ctxutil.TraceData{RequestID: "req-42"}))

	RespondError(c, http.StatusNotFound, "route_not_found", nil)

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.RequestID != "req-42" {
		t.Fatalf("request_id: want=req-42 got=%q", env.Error.RequestID)
	}
	if env.Error.Message != http.StatusText(http.StatusNotFound) {
		t.Fatalf("message: want=%q got=%q", http.StatusText(http.StatusNotFound), env.Error.Message)
	}
	if !c.IsAborted() {
		t.Fatalf("expected context to be aborted")
	}
}
