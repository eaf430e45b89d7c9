package review

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type ProjectMemberRepo interface {
	// Upsert replaces role and notification opt-ins on (project_id, user_id).
	Upsert(dbc dbctx.Context, rows []*types.ProjectMember) error
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectMember, error)
	Get(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.ProjectMember, error)
}

type projectMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectMemberRepo(db *gorm.DB, baseLog *logger.Logger) ProjectMemberRepo {
	return &projectMemberRepo{db: db, log: baseLog.With("repo", "ProjectMemberRepo")}
}

func (r *projectMemberRepo) Upsert(dbc dbctx.Context, rows []*types.ProjectMember) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"role", "notify_comments", "notify_approvals", "notify_uploads", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *projectMemberRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectMember, error) {
	var out []*types.ProjectMember
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectMemberRepo) Get(dbc dbctx.Context, projectID, userID uuid.UUID) (*types.ProjectMember, error) {
	if projectID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var out []*types.ProjectMember
	if err := dbc.Conn(r.db).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
