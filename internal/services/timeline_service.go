package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/timeline"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type TimelineResult struct {
	Asset   review.Asset     `json:"asset"`
	Filters timeline.Filters `json:"-"`
	Entries []timeline.Entry `json:"entries"`
}

type TimelineService interface {
	Get(ctx context.Context, q timeline.Query) (*TimelineResult, error)
}

type timelineService struct {
	log        *logger.Logger
	policy     *policy.Policy
	assets     repos.AssetRepo
	reconciler *timeline.Reconciler
}

func NewTimelineService(
	log *logger.Logger,
	pol *policy.Policy,
	assets repos.AssetRepo,
	versions repos.AssetVersionRepo,
	comments repos.CommentRepo,
	approvals repos.ApprovalLogRepo,
) TimelineService {
	return &timelineService{
		log:    log.With("service", "TimelineService"),
		policy: pol,
		assets: assets,
		reconciler: timeline.NewReconciler(&repoSource{
			versions:  versions,
			comments:  comments,
			approvals: approvals,
		}),
	}
}

func (s *timelineService) Get(ctx context.Context, q timeline.Query) (_ *TimelineResult, err error) {
	const op = "TimelineService.Get"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", q.AssetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	asset, err := s.assets.GetByID(dbctx.New(ctx), q.AssetID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "load asset", err)
	}
	if !s.policy.CanSee(actor, asset) {
		return nil, notFound(op, "asset")
	}
	if q.Version != nil && !q.All {
		v := *q.Version
		if v < 1 {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "version must be >= 1", nil)
		}
		if v > asset.CurrentVersion {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("version %d not found", v), nil)
		}
	}
	entries := []timeline.Entry{}
	for e, err := range s.reconciler.Entries(ctx, q, asset.CurrentVersion) {
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "build timeline", err)
		}
		entries = append(entries, e)
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return &TimelineResult{
		Asset:   *asset,
		Filters: timeline.ResolveFilters(q, asset.CurrentVersion),
		Entries: entries,
	}, nil
}

// repoSource reads the three timeline collections without locks.
type repoSource struct {
	versions  repos.AssetVersionRepo
	comments  repos.CommentRepo
	approvals repos.ApprovalLogRepo
}

func (r *repoSource) ListVersions(ctx context.Context, assetID uuid.UUID, version *int) ([]review.AssetVersion, error) {
	rows, err := r.versions.ListByAsset(dbctx.New(ctx), assetID, version)
	return deref(rows), err
}

func (r *repoSource) ListComments(ctx context.Context, assetID uuid.UUID, version *int) ([]review.Comment, error) {
	rows, err := r.comments.ListByAsset(dbctx.New(ctx), assetID, version)
	return deref(rows), err
}

func (r *repoSource) ListApprovals(ctx context.Context, assetID uuid.UUID, version *int) ([]review.ApprovalLog, error) {
	rows, err := r.approvals.ListByAsset(dbctx.New(ctx), assetID, version)
	return deref(rows), err
}

func deref[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
