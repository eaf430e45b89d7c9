package app

import (
	"gorm.io/gorm"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type Repos struct {
	Asset         repos.AssetRepo
	AssetVersion  repos.AssetVersionRepo
	Comment       repos.CommentRepo
	ApprovalLog   repos.ApprovalLogRepo
	Request       repos.RequestRepo
	ProjectMember repos.ProjectMemberRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Asset:         repos.NewAssetRepo(db, log),
		AssetVersion:  repos.NewAssetVersionRepo(db, log),
		Comment:       repos.NewCommentRepo(db, log),
		ApprovalLog:   repos.NewApprovalLogRepo(db, log),
		Request:       repos.NewRequestRepo(db, log),
		ProjectMember: repos.NewProjectMemberRepo(db, log),
	}
}
