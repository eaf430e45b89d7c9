package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

type CommentAggregateDeps struct {
	Base   BaseDeps
	Policy *policy.Policy

	Assets   repos.AssetRepo
	Comments repos.CommentRepo
	Members  repos.ProjectMemberRepo
}

type commentAggregate struct {
	deps CommentAggregateDeps
}

func NewCommentAggregate(deps CommentAggregateDeps) domainagg.CommentAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	return &commentAggregate{deps: deps}
}

func (a *commentAggregate) Contract() domainagg.Contract {
	return domainagg.CommentAggregateContract
}

func (a *commentAggregate) configured() bool {
	return a.deps.Assets != nil && a.deps.Comments != nil && a.deps.Members != nil
}

func (a *commentAggregate) CreateComment(ctx context.Context, in domainagg.CreateCommentInput) (domainagg.CreateCommentResult, error) {
	const op = "Review.Comment.CreateComment"
	var out domainagg.CreateCommentResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	content, err := SanitizeText(in.Content)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "comment aggregate repos not configured", nil)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.visibleAsset(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanComment(in.Actor, asset) {
			return ForbiddenError("actor cannot comment on this asset")
		}
		rect, err := review.ValidateAnchor(asset.Type, in.Anchor)
		if err != nil {
			return ValidationError(err.Error())
		}

		var parent *review.Comment
		if in.ParentID != nil && *in.ParentID != uuid.Nil {
			parent, err = a.deps.Comments.GetByID(dbc, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.AssetID != asset.ID {
				return NotFoundError("parent comment not found")
			}
			if !parent.IsTopLevel() {
				return ValidationError("replies cannot be nested")
			}
		}

		version := asset.CurrentVersion
		switch {
		case in.AssetVersion != nil:
			version = *in.AssetVersion
		case parent != nil:
			version = parent.AssetVersion
		}
		if version < 1 || version > asset.CurrentVersion {
			return NotFoundError(fmt.Sprintf("asset version %d not found", version))
		}

		members, err := a.deps.Members.ListByProject(dbc, asset.ProjectID)
		if err != nil {
			return err
		}
		mentions := a.visibleMentions(in.Actor.UserID, notify.MergeMentions(in.MentionIDs, content), members, asset)

		c := &review.Comment{
			AssetID:        asset.ID,
			AssetVersion:   version,
			AuthorID:       in.Actor.UserID,
			Content:        content,
			VideoTimestamp: in.Anchor.Timestamp,
			PageNumber:     in.Anchor.Page,
			Mentions:       review.EncodeMentions(mentions),
		}
		if parent != nil {
			pid := parent.ID
			c.ParentID = &pid
		}
		if rect != nil {
			c.RectX, c.RectY, c.RectWidth, c.RectHeight = &rect.X, &rect.Y, &rect.Width, &rect.Height
		}
		for _, att := range in.Attachments {
			path := strings.TrimSpace(att.Path)
			if path == "" {
				continue
			}
			c.Attachments = append(c.Attachments, review.CommentAttachment{
				Path:     path,
				MimeType: strings.TrimSpace(att.MimeType),
			})
		}
		if _, err := a.deps.Comments.Create(dbc, []*review.Comment{c}); err != nil {
			return err
		}

		out.Comment = *c
		out.Asset = *asset
		out.Parent = parent
		out.Mentions = mentions
		out.ProjectMembers = make([]review.ProjectMember, 0, len(members))
		for _, m := range members {
			if m != nil {
				out.ProjectMembers = append(out.ProjectMembers, *m)
			}
		}
		return nil
	})
	return out, err
}

func (a *commentAggregate) SetResolved(ctx context.Context, in domainagg.ResolveCommentInput) (domainagg.ResolveCommentResult, error) {
	const op = "Review.Comment.SetResolved"
	var out domainagg.ResolveCommentResult
	if in.CommentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing comment_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "comment aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Comments.LockByID(dbc, in.CommentID)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundError("comment not found")
		}
		asset, err := a.visibleAsset(dbc, in.Actor, c.AssetID)
		if err != nil {
			return err
		}
		if !c.IsTopLevel() {
			return PreconditionError("only top-level comments can be resolved")
		}
		if !a.deps.Policy.CanResolve(in.Actor, asset) {
			return ForbiddenError("actor cannot resolve comments on this asset")
		}
		if c.Resolved == in.Resolved {
			out.Comment = *c
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"resolved":    in.Resolved,
			"resolved_by": nil,
			"resolved_at": nil,
			"updated_at":  now,
		}
		c.ResolvedBy, c.ResolvedAt = nil, nil
		if in.Resolved {
			resolver := in.Actor.UserID
			updates["resolved_by"] = resolver
			updates["resolved_at"] = now
			c.ResolvedBy, c.ResolvedAt = &resolver, &now
		}
		if err := a.deps.Comments.UpdateFields(dbc, c.ID, updates); err != nil {
			return err
		}
		c.Resolved = in.Resolved
		c.UpdatedAt = now
		out.Comment = *c
		out.Changed = true
		return nil
	})
	return out, err
}

func (a *commentAggregate) DeleteComment(ctx context.Context, in domainagg.DeleteCommentInput) (domainagg.DeleteCommentResult, error) {
	const op = "Review.Comment.DeleteComment"
	var out domainagg.DeleteCommentResult
	if in.CommentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing comment_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "comment aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Comments.LockByID(dbc, in.CommentID)
		if err != nil {
			return err
		}
		if c == nil {
			return NotFoundError("comment not found")
		}
		asset, err := a.visibleAsset(dbc, in.Actor, c.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanDeleteComment(in.Actor, asset, c) {
			return ForbiddenError("actor cannot delete this comment")
		}

		ids := []uuid.UUID{c.ID}
		if c.IsTopLevel() {
			replies, err := a.deps.Comments.ListReplies(dbc, c.ID)
			if err != nil {
				return err
			}
			for _, r := range replies {
				ids = append(ids, r.ID)
			}
		}
		attachments, err := a.deps.Comments.ListAttachments(dbc, ids)
		if err != nil {
			return err
		}
		if err := a.deps.Comments.DeleteByIDs(dbc, ids); err != nil {
			return err
		}
		out.CommentIDs = ids
		out.AttachmentPaths = make([]string, 0, len(attachments))
		for _, att := range attachments {
			out.AttachmentPaths = append(out.AttachmentPaths, att.Path)
		}
		return nil
	})
	return out, err
}

func (a *commentAggregate) visibleAsset(dbc dbctx.Context, actor review.Actor, id uuid.UUID) (*review.Asset, error) {
	asset, err := a.deps.Assets.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if asset == nil || !a.deps.Policy.CanSee(actor, asset) {
		return nil, NotFoundError("asset not found")
	}
	return asset, nil
}

// visibleMentions keeps mentioned project members that can see the asset, minus the author.
func (a *commentAggregate) visibleMentions(authorID uuid.UUID, candidates []uuid.UUID, members []*review.ProjectMember, asset *review.Asset) []uuid.UUID {
	byUser := make(map[uuid.UUID]*review.ProjectMember, len(members))
	for _, m := range members {
		if m != nil {
			byUser[m.UserID] = m
		}
	}
	out := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if id == authorID {
			continue
		}
		m, ok := byUser[id]
		if !ok || !a.deps.Policy.MemberCanSee(*m, asset) {
			continue
		}
		out = append(out, id)
	}
	return out
}
