package repos

import (
	"gorm.io/gorm"

	"github.com/monaam/reviewflow-sub000/internal/data/repos/review"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type AssetRepo = review.AssetRepo
type AssetVersionRepo = review.AssetVersionRepo
type CommentRepo = review.CommentRepo
type ApprovalLogRepo = review.ApprovalLogRepo
type RequestRepo = review.RequestRepo
type ProjectMemberRepo = review.ProjectMemberRepo

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return review.NewAssetRepo(db, baseLog)
}

func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return review.NewAssetVersionRepo(db, baseLog)
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return review.NewCommentRepo(db, baseLog)
}

func NewApprovalLogRepo(db *gorm.DB, baseLog *logger.Logger) ApprovalLogRepo {
	return review.NewApprovalLogRepo(db, baseLog)
}

func NewRequestRepo(db *gorm.DB, baseLog *logger.Logger) RequestRepo {
	return review.NewRequestRepo(db, baseLog)
}

func NewProjectMemberRepo(db *gorm.DB, baseLog *logger.Logger) ProjectMemberRepo {
	return review.NewProjectMemberRepo(db, baseLog)
}
