package bus

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/realtime"
)

type spyBus struct {
	published []realtime.Message
	err       error
}

func (b *spyBus) Publish(_ context.Context, msg realtime.Message) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, msg)
	return nil
}

func (b *spyBus) StartForwarder(context.Context, Handler) error { return nil }
func (b *spyBus) Close() error { return nil }

func TestDispatcherPublishesEnvelope(t *testing.T) {
	b := &spyBus{}
	d := NewDispatcher(b)
	assetID := uuid.New()
	recipients := []uuid.UUID{uuid.New(), uuid.New()}

	err := d.Dispatch(context.Background(), recipients, notify.KindAssetApproved, notify.Payload{
		ProjectID: uuid.New(),
		AssetID:   &assetID,
		Title:     "Hero banner",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(b.published) != 1 {
		t.Fatalf("published: want=1 got=%d", len(b.published))
	}
	msg := b.published[0]
	if msg.Kind != string(notify.KindAssetApproved) {
		t.Fatalf("kind: want=%s got=%s", notify.KindAssetApproved, msg.Kind)
	}
	if len(msg.Recipients) != 2 {
		t.Fatalf("recipients: want=2 got=%d", len(msg.Recipients))
	}
	var p notify.Payload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.AssetID == nil || *p.AssetID != assetID || p.Title != "Hero banner" {
		t.Fatalf("payload: got=%+v", p)
	}
}

func TestDispatcherSkipsEmptyRecipients(t *testing.T) {
	b := &spyBus{err: errors.New("must not publish")}
	if err := NewDispatcher(b).Dispatch(context.Background(), nil, notify.KindCommentNew, notify.Payload{}); err != nil {
		t.Fatalf("Dispatch empty: want nil got=%v", err)
	}
}

func TestDispatcherReturnsPublishError(t *testing.T) {
	b := &spyBus{err: errors.New("redis down")}
	err := NewDispatcher(b).Dispatch(context.Background(), []uuid.UUID{uuid.New()}, notify.KindCommentNew, notify.Payload{})
	if err == nil {
		t.Fatalf("Dispatch: want error")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	b, err := NewRedisBus(rdb, "test_notifications_"+uuid.NewString(), logger.Nop())
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan realtime.Message, 1)
	if err := b.StartForwarder(ctx, func(m realtime.Message) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	want := uuid.New()
	if err := NewDispatcher(b).Dispatch(ctx, []uuid.UUID{want}, notify.KindRevisionRequested, notify.Payload{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	select {
	case m := <-got:
		if len(m.Recipients) != 1 || m.Recipients[0] != want {
			t.Fatalf("recipients: want=[%s] got=%v", want, m.Recipients)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
}
