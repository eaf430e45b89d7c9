package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type RequestRepo interface {
	Create(dbc dbctx.Context, rows []*types.Request) ([]*types.Request, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// AssignIfUnassigned sets assignee_id only while it is still null.
	AssignIfUnassigned(dbc dbctx.Context, id, assigneeID uuid.UUID) (bool, error)
}

type requestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequestRepo(db *gorm.DB, baseLog *logger.Logger) RequestRepo {
	return &requestRepo{db: db, log: baseLog.With("repo", "RequestRepo")}
}

func (r *requestRepo) Create(dbc dbctx.Context, rows []*types.Request) ([]*types.Request, error) {
	if len(rows) == 0 {
		return []*types.Request{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Request
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *requestRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Request, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Request
	err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *requestRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Conn(r.db).
		Model(&types.Request{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *requestRepo) AssignIfUnassigned(dbc dbctx.Context, id, assigneeID uuid.UUID) (bool, error) {
	if id == uuid.Nil || assigneeID == uuid.Nil {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Model(&types.Request{}).
		Where("id = ? AND assignee_id IS NULL", id).
		Updates(map[string]interface{}{
			"assignee_id": assigneeID,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
