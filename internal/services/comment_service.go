package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/platform/staging"
	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
)

type CreateCommentRequest struct {
	AssetID      uuid.UUID
	ParentID     *uuid.UUID
	AssetVersion *int
	Content      string
	Anchor       review.Anchor
	MentionIDs   []uuid.UUID
	// StagedMediaIDs reference pre-uploaded images; foreign or expired ids are dropped.
	StagedMediaIDs []string
}

type CommentService interface {
	Create(ctx context.Context, in CreateCommentRequest) (*domainagg.CreateCommentResult, error)
	SetResolved(ctx context.Context, commentID uuid.UUID, resolved bool) (*domainagg.ResolveCommentResult, error)
	Delete(ctx context.Context, commentID uuid.UUID) (*domainagg.DeleteCommentResult, error)
	// StageMedia stores an image for a later comment and returns its temporary id.
	StageMedia(ctx context.Context, file FileUpload) (*staging.StagedMedia, error)
}

type commentService struct {
	log       *logger.Logger
	policy    *policy.Policy
	aggregate domainagg.CommentAggregate
	staged    staging.MediaStore
	store     storage.Store
	notifier  Notifier
}

func NewCommentService(
	log *logger.Logger,
	pol *policy.Policy,
	aggregate domainagg.CommentAggregate,
	staged staging.MediaStore,
	store storage.Store,
	notifier Notifier,
) CommentService {
	return &commentService{
		log:       log.With("service", "CommentService"),
		policy:    pol,
		aggregate: aggregate,
		staged:    staged,
		store:     store,
		notifier:  notifier,
	}
}

func (s *commentService) Create(ctx context.Context, in CreateCommentRequest) (_ *domainagg.CreateCommentResult, err error) {
	const op = "CommentService.Create"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", in.AssetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	attachments, err := s.resolveStaged(ctx, op, actor, in.StagedMediaIDs)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregate.CreateComment(ctx, domainagg.CreateCommentInput{
		Actor:        actor,
		AssetID:      in.AssetID,
		ParentID:     in.ParentID,
		AssetVersion: in.AssetVersion,
		Content:      in.Content,
		Anchor:       in.Anchor,
		MentionIDs:   in.MentionIDs,
		Attachments:  attachments,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		if err := s.staged.Clear(context.WithoutCancel(ctx), a.TempID); err != nil {
			s.log.Warn("staged media clear failed", logFields(ctx, "temp_id", a.TempID, "error", err)...)
		}
	}
	span.SetAttributes(attribute.String("comment_id", res.Comment.ID.String()))

	ev := notify.CommentEvent{
		ActorID:    actor.UserID,
		UploaderID: res.Asset.UploaderID,
		Mentions:   res.Mentions,
		OptedIn: notify.Subscribers(res.ProjectMembers, func(m review.ProjectMember) bool {
			return notify.WantsComments(m) && s.policy.MemberCanSee(m, &res.Asset)
		}),
	}
	if res.Parent != nil && s.memberSees(res.ProjectMembers, res.Parent.AuthorID, &res.Asset) {
		author := res.Parent.AuthorID
		ev.ParentAuthorID = &author
	}
	payload := assetPayload(actor, res.Asset, res.Asset.Title)
	commentID := res.Comment.ID
	payload.CommentID = &commentID
	payload.AssetVersion = res.Comment.AssetVersion
	payload.Message = res.Comment.Content
	s.notifier.Notify(ctx, notify.ForComment(ev), payload)
	return &res, nil
}

// memberSees is false only when userID holds a member row whose role cannot see asset.
func (s *commentService) memberSees(members []review.ProjectMember, userID uuid.UUID, asset *review.Asset) bool {
	for _, m := range members {
		if m.UserID == userID {
			return s.policy.MemberCanSee(m, asset)
		}
	}
	return true
}

// resolveStaged keeps staged media owned by actor. Unknown, expired and foreign ids are dropped.
func (s *commentService) resolveStaged(ctx context.Context, op string, actor review.Actor, ids []string) ([]domainagg.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if s.staged == nil {
		s.log.Warn("staged media ignored; no staging store configured", logFields(ctx, "count", len(ids))...)
		return nil, nil
	}
	seen := map[string]bool{}
	out := make([]domainagg.Attachment, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		m, err := s.staged.Get(ctx, id)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeRetryable, op, "resolve staged media", err)
		}
		if m == nil || m.OwnerID != actor.UserID {
			s.log.Debug("staged media dropped", logFields(ctx, "temp_id", id, "actor_id", actor.UserID)...)
			continue
		}
		out = append(out, domainagg.Attachment{TempID: id, Path: m.Path, MimeType: m.MimeType})
	}
	return out, nil
}

func (s *commentService) SetResolved(ctx context.Context, commentID uuid.UUID, resolved bool) (_ *domainagg.ResolveCommentResult, err error) {
	const op = "CommentService.SetResolved"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("comment_id", commentID.String()), attribute.Bool("resolved", resolved))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregate.SetResolved(ctx, domainagg.ResolveCommentInput{Actor: actor, CommentID: commentID, Resolved: resolved})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *commentService) Delete(ctx context.Context, commentID uuid.UUID) (_ *domainagg.DeleteCommentResult, err error) {
	const op = "CommentService.Delete"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("comment_id", commentID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregate.DeleteComment(ctx, domainagg.DeleteCommentInput{Actor: actor, CommentID: commentID})
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		for _, p := range res.AttachmentPaths {
			if _, err := s.store.Delete(context.WithoutCancel(ctx), p); err != nil {
				s.log.Warn("attachment cleanup failed", logFields(ctx, "path", p, "error", err)...)
			}
		}
	}
	return &res, nil
}

func (s *commentService) StageMedia(ctx context.Context, file FileUpload) (_ *staging.StagedMedia, err error) {
	const op = "CommentService.StageMedia"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if !s.policy.Can(actor.Role, policy.CapComment) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot comment", nil)
	}
	if file.Reader == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing file", nil)
	}
	mime := strings.TrimSpace(file.MimeType)
	if mime == "" {
		mime = storage.ContentTypeForKey(file.Name)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "staged media must be an image", nil)
	}
	if s.store == nil || s.staged == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "staging not configured", nil)
	}
	stored, err := s.store.Store(ctx, file.Reader, file.Name)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "store staged media", err)
	}
	m, err := s.staged.Put(ctx, staging.StagedMedia{OwnerID: actor.UserID, Path: stored.Path, MimeType: mime})
	if err != nil {
		_, _ = s.store.Delete(context.WithoutCancel(ctx), stored.Path)
		return nil, domainagg.NewError(domainagg.CodeRetryable, op, "stage media", err)
	}
	return &m, nil
}
