package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/platform/staging"
	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
	"github.com/monaam/reviewflow-sub000/internal/realtime/bus"
)

type Clients struct {
	// Redis is nil when no address is configured.
	Redis      *goredis.Client
	Store      storage.Store
	Staged     staging.MediaStore
	Dispatcher notify.Dispatcher
	bus        bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := resolveObjectStore(ctx, log, cfg.Storage)
	if err != nil {
		return Clients{}, err
	}

	if !cfg.Redis.Enabled() {
		log.Warn("redis not configured; staged media is process-local and notifications are only logged")
		return Clients{
			Store:      store,
			Staged:     staging.NewMemoryStore(cfg.Staging.TTL),
			Dispatcher: notify.NewLogDispatcher(log),
		}, nil
	}

	// Redis
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	staged, err := staging.NewRedisStore(rdb, cfg.Staging.Prefix, cfg.Staging.TTL, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init staged media store: %w", err)
	}
	b, err := bus.NewRedisBus(rdb, cfg.Redis.Channel, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init notification bus: %w", err)
	}

	return Clients{
		Redis:      rdb,
		Store:      store,
		Staged:     staged,
		Dispatcher: bus.NewDispatcher(b),
		bus:        b,
	}, nil
}

func (c Clients) Close() {
	if c.bus != nil {
		_ = c.bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
