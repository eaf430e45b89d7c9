package review

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

// ApprovalLogRepo has no update methods; approval logs are append-only.
type ApprovalLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.ApprovalLog) ([]*types.ApprovalLog, error)
	ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.ApprovalLog, error)
	DeleteByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) error
}

type approvalLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApprovalLogRepo(db *gorm.DB, baseLog *logger.Logger) ApprovalLogRepo {
	return &approvalLogRepo{db: db, log: baseLog.With("repo", "ApprovalLogRepo")}
}

func (r *approvalLogRepo) Create(dbc dbctx.Context, rows []*types.ApprovalLog) ([]*types.ApprovalLog, error) {
	if len(rows) == 0 {
		return []*types.ApprovalLog{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *approvalLogRepo) ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.ApprovalLog, error) {
	var out []*types.ApprovalLog
	if assetID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("asset_id = ?", assetID)
	if version != nil {
		q = q.Where("asset_version = ?", *version)
	}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *approvalLogRepo) DeleteByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) error {
	if len(assetIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("asset_id IN ?", assetIDs).Delete(&types.ApprovalLog{}).Error
}
