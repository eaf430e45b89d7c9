package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/realtime"
)

type dispatcher struct {
	bus Bus
	now func() time.Time
}

// NewDispatcher hands notifications to the delivery service over b.
func NewDispatcher(b Bus) notify.Dispatcher {
	return &dispatcher{bus: b, now: time.Now}
}

func (d *dispatcher) Dispatch(ctx context.Context, recipients []uuid.UUID, kind notify.Kind, payload notify.Payload) error {
	if len(recipients) == 0 {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.bus.Publish(ctx, realtime.Message{
		ID:         uuid.New(),
		Kind:       string(kind),
		Recipients: recipients,
		Payload:    raw,
		SentAt:     d.now().UTC(),
	})
}
