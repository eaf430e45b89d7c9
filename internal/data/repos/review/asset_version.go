package review

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type AssetVersionRepo interface {
	Create(dbc dbctx.Context, rows []*types.AssetVersion) ([]*types.AssetVersion, error)
	GetByAssetAndNumber(dbc dbctx.Context, assetID uuid.UUID, number int) (*types.AssetVersion, error)
	// ListByAsset orders by created_at; a nil version returns every version.
	ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.AssetVersion, error)
	DeleteByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) error
}

type assetVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return &assetVersionRepo{db: db, log: baseLog.With("repo", "AssetVersionRepo")}
}

func (r *assetVersionRepo) Create(dbc dbctx.Context, rows []*types.AssetVersion) ([]*types.AssetVersion, error) {
	if len(rows) == 0 {
		return []*types.AssetVersion{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assetVersionRepo) GetByAssetAndNumber(dbc dbctx.Context, assetID uuid.UUID, number int) (*types.AssetVersion, error) {
	if assetID == uuid.Nil || number < 1 {
		return nil, nil
	}
	var out []*types.AssetVersion
	if err := dbc.Conn(r.db).
		Where("asset_id = ? AND version_number = ?", assetID, number).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetVersionRepo) ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.AssetVersion, error) {
	var out []*types.AssetVersion
	if assetID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("asset_id = ?", assetID)
	if version != nil {
		q = q.Where("version_number = ?", *version)
	}
	if err := q.Order("created_at ASC").Order("version_number ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetVersionRepo) DeleteByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) error {
	if len(assetIDs) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("asset_id IN ?", assetIDs).Delete(&types.AssetVersion{}).Error
}
