package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

// CommentAggregateContract covers threading, annotation anchors, attachments and resolution.
var CommentAggregateContract = Contract{
	Name:   "Review.CommentAggregate",
	Root:   "comment",
	Writes: []string{"comment_attachment"},
	Lock:   LockRow,
}

// CommentAggregate owns comment threads on an asset.
type CommentAggregate interface {
	Aggregate

	CreateComment(ctx context.Context, in CreateCommentInput) (CreateCommentResult, error)

	// SetResolved resolves or unresolves a top-level comment.
	SetResolved(ctx context.Context, in ResolveCommentInput) (ResolveCommentResult, error)

	// DeleteComment removes a comment and, for top-level comments, its replies.
	DeleteComment(ctx context.Context, in DeleteCommentInput) (DeleteCommentResult, error)
}

// Attachment is staged media already resolved and owned by the author.
type Attachment struct {
	TempID   string
	Path     string
	MimeType string
}

type CreateCommentInput struct {
	Actor        review.Actor
	AssetID      uuid.UUID
	ParentID     *uuid.UUID
	AssetVersion *int
	Content      string
	Anchor       review.Anchor
	MentionIDs   []uuid.UUID
	Attachments  []Attachment
}

type CreateCommentResult struct {
	Comment review.Comment
	Asset   review.Asset
	Parent  *review.Comment
	// Mentions are the mentioned users that can see the asset, excluding the author.
	Mentions []uuid.UUID
	// ProjectMembers is the membership snapshot read in the same transaction.
	ProjectMembers []review.ProjectMember
}

type ResolveCommentInput struct {
	Actor     review.Actor
	CommentID uuid.UUID
	Resolved  bool
}

type ResolveCommentResult struct {
	Comment review.Comment
	Changed bool
}

type DeleteCommentInput struct {
	Actor     review.Actor
	CommentID uuid.UUID
}

type DeleteCommentResult struct {
	CommentIDs      []uuid.UUID
	AttachmentPaths []string
}
