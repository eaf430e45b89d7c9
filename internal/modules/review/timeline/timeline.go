package timeline

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

type EntryKind string

const (
	KindVersion  EntryKind = "version"
	KindComment  EntryKind = "comment"
	KindApproval EntryKind = "approval"
)

// tie-break order for entries sharing a timestamp
var kindRank = map[EntryKind]int{KindVersion: 0, KindComment: 1, KindApproval: 2}

// Entry is one timeline item. Exactly one of Version, Comment, Approval is set, matching Kind.
type Entry struct {
	Kind     EntryKind            `json:"type"`
	ID       string               `json:"id"`
	At       time.Time            `json:"created_at"`
	Version  *review.AssetVersion `json:"version,omitempty"`
	Comment  *review.Comment      `json:"comment,omitempty"`
	Approval *review.ApprovalLog  `json:"approval,omitempty"`
}

// CompositeID keeps ids unique across the three source tables.
func CompositeID(kind EntryKind, id uuid.UUID) string {
	return string(kind) + ":" + id.String()
}

// Source reads the three event collections. A nil version means unfiltered.
type Source interface {
	ListVersions(ctx context.Context, assetID uuid.UUID, version *int) ([]review.AssetVersion, error)
	ListComments(ctx context.Context, assetID uuid.UUID, version *int) ([]review.Comment, error)
	ListApprovals(ctx context.Context, assetID uuid.UUID, version *int) ([]review.ApprovalLog, error)
}

type Query struct {
	AssetID uuid.UUID
	// Version filters every source to one asset version.
	Version *int
	// All disables filtering, including the current-version default.
	All bool
}

// Filters is the per-source version filter derived from a query.
type Filters struct {
	Versions  *int
	Comments  *int
	Approvals *int
}

// ResolveFilters applies the defaults: comments and approvals follow the current
// version, version entries are never filtered unless a version is requested.
func ResolveFilters(q Query, currentVersion int) Filters {
	switch {
	case q.All:
		return Filters{}
	case q.Version != nil:
		v := *q.Version
		return Filters{Versions: &v, Comments: &v, Approvals: &v}
	default:
		v := currentVersion
		return Filters{Comments: &v, Approvals: &v}
	}
}

type Reconciler struct {
	src Source
}

func NewReconciler(src Source) *Reconciler {
	return &Reconciler{src: src}
}

// Build fetches the three collections concurrently and merges them.
func (r *Reconciler) Build(ctx context.Context, q Query, currentVersion int) ([]Entry, error) {
	f := ResolveFilters(q, currentVersion)

	var (
		versions  []review.AssetVersion
		comments  []review.Comment
		approvals []review.ApprovalLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		versions, err = r.src.ListVersions(gctx, q.AssetID, f.Versions)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = r.src.ListComments(gctx, q.AssetID, f.Comments)
		return err
	})
	g.Go(func() error {
		var err error
		approvals, err = r.src.ListApprovals(gctx, q.AssetID, f.Approvals)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(versions, comments, approvals), nil
}

// Entries is a lazy, restartable view: every iteration re-reads the sources.
func (r *Reconciler) Entries(ctx context.Context, q Query, currentVersion int) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		entries, err := r.Build(ctx, q, currentVersion)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Merge interleaves the three collections in ascending created_at order.
func Merge(versions []review.AssetVersion, comments []review.Comment, approvals []review.ApprovalLog) []Entry {
	out := make([]Entry, 0, len(versions)+len(comments)+len(approvals))
	for i := range versions {
		v := versions[i]
		out = append(out, Entry{Kind: KindVersion, ID: CompositeID(KindVersion, v.ID), At: v.CreatedAt, Version: &v})
	}
	for i := range comments {
		c := comments[i]
		out = append(out, Entry{Kind: KindComment, ID: CompositeID(KindComment, c.ID), At: c.CreatedAt, Comment: &c})
	}
	for i := range approvals {
		a := approvals[i]
		out = append(out, Entry{Kind: KindApproval, ID: CompositeID(KindApproval, a.ID), At: a.CreatedAt, Approval: &a})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		if out[i].Kind != out[j].Kind {
			return kindRank[out[i].Kind] < kindRank[out[j].Kind]
		}
		return out[i].ID < out[j].ID
	})
	return out
}
