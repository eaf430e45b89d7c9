package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// executeWrite runs fn in one transaction, maps the result to a domain error and
// reports the outcome to hooks and the caller's span.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "review.write"
	}

	attempts := 0
	err := deps.Runner.InTx(ctx, func(dbc dbctx.Context) error {
		attempts++
		return fn(dbc)
	})
	for i := 1; i < attempts; i++ {
		deps.Hooks.IncRetry(op)
	}
	mapped := MapError(op, err)
	outcome := writeOutcome(mapped)

	if mapped != nil {
		switch {
		case domainagg.IsCode(mapped, domainagg.CodeConflict) || errors.Is(mapped, ErrConflict):
			deps.Hooks.IncConflict(op)
		case domainagg.IsCode(mapped, domainagg.CodeRetryable):
			deps.Hooks.IncRetry(op)
			deps.Log.Warn("review write retryable", "op", op, "attempts", attempts, "error", mapped)
		case domainagg.IsCode(mapped, domainagg.CodeInternal):
			deps.Log.Error("review write failed", "op", op, "attempts", attempts, "error", mapped)
		}
	}
	deps.Hooks.ObserveOperation(op, outcome, time.Since(start))
	trace.SpanFromContext(ctx).AddEvent("review.write", trace.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
		attribute.Int("attempts", attempts),
	))
	return mapped
}

// writeOutcome is the metric status label for a mapped write error.
func writeOutcome(err error) string {
	if err == nil {
		return "success"
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeOf(MapError("review.outcome", err))
	}
	if code == "" {
		return "failure"
	}
	return string(code)
}
