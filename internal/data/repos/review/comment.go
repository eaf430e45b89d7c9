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

type CommentRepo interface {
	// Create inserts comments together with their Attachments.
	Create(dbc dbctx.Context, rows []*types.Comment) ([]*types.Comment, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error)
	// ListByAsset orders by created_at and preloads attachments; a nil version is unfiltered.
	ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.Comment, error)
	ListReplies(dbc dbctx.Context, parentID uuid.UUID) ([]*types.Comment, error)
	ListIDsByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]uuid.UUID, error)
	ListAttachments(dbc dbctx.Context, commentIDs []uuid.UUID) ([]*types.CommentAttachment, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// DeleteByIDs removes comments and their attachments.
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(dbc dbctx.Context, rows []*types.Comment) ([]*types.Comment, error) {
	if len(rows) == 0 {
		return []*types.Comment{}, nil
	}
	if err := dbc.Conn(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *commentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Comment
	if err := dbc.Conn(r.db).
		Preload("Attachments").
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *commentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Comment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Comment
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

func (r *commentRepo) ListByAsset(dbc dbctx.Context, assetID uuid.UUID, version *int) ([]*types.Comment, error) {
	var out []*types.Comment
	if assetID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Preload("Attachments").Where("asset_id = ?", assetID)
	if version != nil {
		q = q.Where("asset_version = ?", *version)
	}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) ListReplies(dbc dbctx.Context, parentID uuid.UUID) ([]*types.Comment, error) {
	var out []*types.Comment
	if parentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) ListIDsByAssetIDs(dbc dbctx.Context, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if len(assetIDs) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Model(&types.Comment{}).
		Where("asset_id IN ?", assetIDs).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) ListAttachments(dbc dbctx.Context, commentIDs []uuid.UUID) ([]*types.CommentAttachment, error) {
	var out []*types.CommentAttachment
	if len(commentIDs) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("comment_id IN ?", commentIDs).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Comment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *commentRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	conn := dbc.Conn(r.db)
	if err := conn.Where("comment_id IN ?", ids).Delete(&types.CommentAttachment{}).Error; err != nil {
		return err
	}
	return conn.Where("id IN ?", ids).Delete(&types.Comment{}).Error
}
