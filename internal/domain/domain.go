package domain

import "github.com/monaam/reviewflow-sub000/internal/domain/review"

type (
	Asset             = review.Asset
	AssetVersion      = review.AssetVersion
	Comment           = review.Comment
	CommentAttachment = review.CommentAttachment
	ApprovalLog       = review.ApprovalLog
	Request           = review.Request
	ProjectMember     = review.ProjectMember

	AssetStatus    = review.AssetStatus
	AssetType      = review.AssetType
	ApprovalAction = review.ApprovalAction
	RequestStatus  = review.RequestStatus
)

// Models lists every persisted review model in migration order.
func Models() []any {
	return []any{
		&review.Asset{},
		&review.AssetVersion{},
		&review.Comment{},
		&review.CommentAttachment{},
		&review.ApprovalLog{},
		&review.Request{},
		&review.ProjectMember{},
	}
}
