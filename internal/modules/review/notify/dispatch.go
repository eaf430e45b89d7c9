package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

// Payload is the event context handed to the delivery collaborator.
type Payload struct {
	ProjectID    uuid.UUID      `json:"project_id"`
	AssetID      *uuid.UUID     `json:"asset_id,omitempty"`
	CommentID    *uuid.UUID     `json:"comment_id,omitempty"`
	RequestID    *uuid.UUID     `json:"request_id,omitempty"`
	ActorID      uuid.UUID      `json:"actor_id"`
	Title        string         `json:"title"`
	Message      string         `json:"message,omitempty"`
	AssetVersion int            `json:"asset_version,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Dispatcher delivers one notification kind to a recipient list.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []uuid.UUID, kind Kind, payload Payload) error
}

// Observer receives dispatch outcomes.
type Observer interface {
	ObserveNotification(kind, status string, recipients int)
}

type logDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher returns a Dispatcher that only logs.
func NewLogDispatcher(log *logger.Logger) Dispatcher {
	return &logDispatcher{log: log.With("dispatcher", "LogDispatcher")}
}

func (d *logDispatcher) Dispatch(_ context.Context, recipients []uuid.UUID, kind Kind, payload Payload) error {
	d.log.Info("notification",
		"kind", string(kind),
		"recipients", len(recipients),
		"project_id", payload.ProjectID.String(),
		"actor_id", payload.ActorID.String(),
		"title", payload.Title,
	)
	return nil
}

// Notifier hands recipient sets to a Dispatcher without blocking the caller.
// Delivery failures are logged and never retried.
type Notifier struct {
	log        *logger.Logger
	dispatcher Dispatcher
	observer   Observer
	timeout    time.Duration
	sync       bool
	wg         sync.WaitGroup
}

type NotifierOption func(*Notifier)

// WithObserver reports dispatch outcomes.
func WithObserver(o Observer) NotifierOption {
	return func(n *Notifier) { n.observer = o }
}

// WithTimeout bounds each dispatch call.
func WithTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// Synchronous makes Notify dispatch inline.
func Synchronous() NotifierOption {
	return func(n *Notifier) { n.sync = true }
}

func NewNotifier(log *logger.Logger, d Dispatcher, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		log:        log.With("service", "Notifier"),
		dispatcher: d,
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify dispatches targets grouped by kind. An empty target list is a no-op.
func (n *Notifier) Notify(ctx context.Context, targets []Target, payload Payload) {
	if n == nil || n.dispatcher == nil || len(targets) == 0 {
		return
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	kinds, groups := ByKind(targets)
	base := context.WithoutCancel(ctx)
	for _, kind := range kinds {
		recipients := groups[kind]
		if n.sync {
			n.dispatch(base, kind, recipients, payload)
			continue
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.dispatch(base, kind, recipients, payload)
		}()
	}
}

func (n *Notifier) dispatch(ctx context.Context, kind Kind, recipients []uuid.UUID, payload Payload) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("notification dispatch panicked", "kind", string(kind), "panic", r)
			n.observe(kind, "panic", len(recipients))
		}
	}()
	if err := n.dispatcher.Dispatch(ctx, recipients, kind, payload); err != nil {
		n.log.Warn("notification dispatch failed",
			"kind", string(kind),
			"recipients", len(recipients),
			"error", err,
		)
		n.observe(kind, "error", len(recipients))
		return
	}
	n.observe(kind, "success", len(recipients))
}

func (n *Notifier) observe(kind Kind, status string, recipients int) {
	if n.observer == nil {
		return
	}
	n.observer.ObserveNotification(strings.TrimSpace(string(kind)), status, recipients)
}

// Wait blocks until in-flight dispatches finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
