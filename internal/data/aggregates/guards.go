package aggregates

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

// CASGuard guards asset and request writes against concurrent state changes.
// A swap succeeds only when the row still matches what was read under lock.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) scoped(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// SwapAsset applies updates when the asset row still has the (status, current_version)
// pair carried by snapshot.
func (g CASGuard) SwapAsset(dbc dbctx.Context, snapshot *review.Asset, updates map[string]any) (bool, error) {
	db, err := g.scoped(dbc)
	if err != nil {
		return false, err
	}
	if snapshot == nil || snapshot.ID == uuid.Nil {
		return false, ValidationError("asset snapshot is required")
	}
	if _, ok := review.ParseStatus(string(snapshot.Status)); !ok {
		return false, ValidationError(fmt.Sprintf("asset snapshot has unknown status %q", snapshot.Status))
	}
	if snapshot.CurrentVersion < 1 {
		return false, ValidationError("asset snapshot current_version must be >= 1")
	}
	res := db.Table(assetTable).
		Where("id = ? AND status = ? AND current_version = ?", snapshot.ID, string(snapshot.Status), snapshot.CurrentVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SwapRequest applies updates when the request is still in one of from.
func (g CASGuard) SwapRequest(dbc dbctx.Context, id uuid.UUID, from []review.RequestStatus, updates map[string]any) (bool, error) {
	db, err := g.scoped(dbc)
	if err != nil {
		return false, err
	}
	if id == uuid.Nil {
		return false, ValidationError("request id is required")
	}
	if len(from) == 0 {
		return false, ValidationError("request swap needs at least one source status")
	}
	allowed := make([]string, 0, len(from))
	for _, st := range from {
		allowed = append(allowed, string(st))
	}
	res := db.Table(requestTable).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// requireSwapped turns a lost swap into a precondition failure that also matches ErrConflict,
// so hooks count it as a conflict.
func requireSwapped(ok bool, what string) error {
	if ok {
		return nil
	}
	return errors.Join(ErrPrecondition, ConflictError(what+" changed concurrently"))
}
