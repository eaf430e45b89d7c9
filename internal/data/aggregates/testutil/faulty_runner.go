package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/monaam/reviewflow-sub000/internal/data/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

// FaultyTxRunner runs aggregate writes in real transactions on DB and injects faults.
// Without DB the body runs with no Tx.
type FaultyTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	// AbortAfterBody rolls the transaction back after a successful body and is returned.
	AbortAfterBody error
	// Replays reruns the body that many extra times, each in a fresh transaction,
	// rolling back all but the last run.
	Replays int

	Runs       int
	Committed  int
	RolledBack int
}

var _ aggregates.TxRunner = (*FaultyTxRunner)(nil)

type replayAbort struct{}

func (replayAbort) Error() string { return "replayed transaction aborted" }

func (r *FaultyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	abort := r.AbortAfterBody
	replays := r.Replays
	db := r.DB
	r.mu.Unlock()

	for i := 0; ; i++ {
		final := i >= replays
		err := r.run(ctx, db, func(dbc dbctx.Context) error {
			if fn != nil {
				if err := fn(dbc); err != nil {
					return err
				}
			}
			if !final {
				return replayAbort{}
			}
			return abort
		})
		if _, replayed := err.(replayAbort); replayed {
			continue
		}
		return err
	}
}

func (r *FaultyTxRunner) run(ctx context.Context, db *gorm.DB, body func(dbctx.Context) error) error {
	var err error
	if db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Runs++
	if err != nil {
		r.RolledBack++
		return err
	}
	r.Committed++
	return nil
}
