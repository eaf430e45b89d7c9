package bus

import (
	"context"

	"github.com/monaam/reviewflow-sub000/internal/realtime"
)

// Handler receives one notification envelope. It runs on the forwarder goroutine.
type Handler func(m realtime.Message)

// Bus hands notification envelopes to the external delivery service.
// Publish is fire-and-forget; StartForwarder feeds h until ctx ends.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, h Handler) error
	Close() error
}
