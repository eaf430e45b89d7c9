package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

const (
	assetTable   = "asset"
	requestTable = "request"

	maxTitleRunes = 255
	maxNotesRunes = 2000
)

type AssetAggregateDeps struct {
	Base   BaseDeps
	Policy *policy.Policy

	Assets    repos.AssetRepo
	Versions  repos.AssetVersionRepo
	Comments  repos.CommentRepo
	Approvals repos.ApprovalLogRepo
	Requests  repos.RequestRepo
}

type assetAggregate struct {
	deps AssetAggregateDeps
}

func NewAssetAggregate(deps AssetAggregateDeps) domainagg.AssetAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	return &assetAggregate{deps: deps}
}

func (a *assetAggregate) Contract() domainagg.Contract {
	return domainagg.AssetAggregateContract
}

func (a *assetAggregate) configured() bool {
	return a.deps.Assets != nil && a.deps.Versions != nil && a.deps.Comments != nil &&
		a.deps.Approvals != nil && a.deps.Requests != nil
}

func (a *assetAggregate) CreateAsset(ctx context.Context, in domainagg.CreateAssetInput) (domainagg.CreateAssetResult, error) {
	const op = "Review.Asset.CreateAsset"
	var out domainagg.CreateAssetResult
	if in.ProjectID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing title", nil)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "title too long", nil)
	}
	assetType, ok := review.ParseAssetType(string(in.Type))
	if !ok {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unsupported asset type %q", in.Type), nil)
	}
	if err := validateVersionFile(in.File); err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}
	if !a.deps.Policy.CanUpload(in.Actor, in.ProjectID) {
		return out, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot upload to this project", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var req *review.Request
		if in.RequestID != nil && *in.RequestID != uuid.Nil {
			r, err := a.deps.Requests.LockByID(dbc, *in.RequestID)
			if err != nil {
				return err
			}
			if r == nil || r.ProjectID != in.ProjectID {
				return NotFoundError("request not found")
			}
			req = r
		}

		asset := &review.Asset{
			ProjectID:      in.ProjectID,
			UploaderID:     in.Actor.UserID,
			Title:          title,
			Type:           assetType,
			Status:         review.StatusPendingReview,
			CurrentVersion: 1,
			Deadline:       utcTimePtr(in.Deadline),
		}
		if req != nil {
			id := req.ID
			asset.RequestID = &id
		}
		if _, err := a.deps.Assets.Create(dbc, []*review.Asset{asset}); err != nil {
			return err
		}
		version := newAssetVersion(asset.ID, 1, in.Actor.UserID, in.File)
		if _, err := a.deps.Versions.Create(dbc, []*review.AssetVersion{version}); err != nil {
			return err
		}
		out.Asset = *asset
		out.Version = *version

		if req != nil {
			link, err := a.linkRequest(dbc, req, asset.UploaderID)
			if err != nil {
				return err
			}
			out.Link = &link
		}
		return nil
	})
	return out, err
}

func (a *assetAggregate) RecordView(ctx context.Context, in domainagg.RecordViewInput) (domainagg.RecordViewResult, error) {
	const op = "Review.Asset.RecordView"
	var out domainagg.RecordViewResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	// Plain reads never open a write transaction.
	current, err := a.deps.Assets.GetByID(dbctx.New(ctx), in.AssetID)
	if err != nil {
		return out, MapError(op, err)
	}
	if current == nil || !a.deps.Policy.CanSee(in.Actor, current) {
		return out, domainagg.NewError(domainagg.CodeNotFound, op, "asset not found", nil)
	}
	out.Asset = *current
	if current.Status != review.StatusPendingReview || !a.deps.Policy.TriggersReview(in.Actor, current) {
		return out, nil
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		out.Asset = *asset
		if asset.Status != review.StatusPendingReview {
			return nil
		}
		if err := a.transition(dbc, asset, review.EventPrivilegedView, nil); err != nil {
			return err
		}
		out.Asset = *asset
		out.Changed = true
		return nil
	})
	return out, err
}

func (a *assetAggregate) UploadVersion(ctx context.Context, in domainagg.UploadVersionInput) (domainagg.UploadVersionResult, error) {
	const op = "Review.Asset.UploadVersion"
	var out domainagg.UploadVersionResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if err := validateVersionFile(in.File); err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanUpload(in.Actor, asset.ProjectID) {
			return ForbiddenError("actor cannot upload versions")
		}
		if asset.Locked {
			return PreconditionError("asset is locked")
		}

		out.PreviousStatus = asset.Status
		next := asset.CurrentVersion + 1
		if err := a.transition(dbc, asset, review.EventUploadVersion, map[string]any{"current_version": next}); err != nil {
			return err
		}
		asset.CurrentVersion = next

		version := newAssetVersion(asset.ID, next, in.Actor.UserID, in.File)
		if _, err := a.deps.Versions.Create(dbc, []*review.AssetVersion{version}); err != nil {
			return err
		}
		out.Asset = *asset
		out.Version = *version
		return nil
	})
	return out, err
}

func (a *assetAggregate) SendToClient(ctx context.Context, in domainagg.TransitionInput) (domainagg.TransitionResult, error) {
	const op = "Review.Asset.SendToClient"
	var out domainagg.TransitionResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanSendToClient(in.Actor, asset) {
			return ForbiddenError("actor cannot send assets to the client")
		}
		if asset.Locked {
			return PreconditionError("asset is locked")
		}
		out.PreviousStatus = asset.Status
		if err := a.transition(dbc, asset, review.EventSendToClient, nil); err != nil {
			return err
		}
		out.Asset = *asset
		return nil
	})
	return out, err
}

func (a *assetAggregate) Approve(ctx context.Context, in domainagg.DecisionInput) (domainagg.DecisionResult, error) {
	return a.decide(ctx, "Review.Asset.Approve", in, review.EventApprove, review.ActionApproved)
}

func (a *assetAggregate) RequestRevision(ctx context.Context, in domainagg.DecisionInput) (domainagg.DecisionResult, error) {
	return a.decide(ctx, "Review.Asset.RequestRevision", in, review.EventRequestRevision, review.ActionRevisionRequested)
}

func (a *assetAggregate) decide(ctx context.Context, op string, in domainagg.DecisionInput, ev review.Event, action review.ApprovalAction) (domainagg.DecisionResult, error) {
	var out domainagg.DecisionResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	note, err := SanitizeText(in.Comment)
	if isEmptyText(err) && action == review.ActionRevisionRequested {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "revision request requires a comment", nil)
	}
	if err != nil && !isEmptyText(err) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanDecide(in.Actor, asset) {
			return ForbiddenError("actor cannot decide on this asset")
		}
		if asset.Locked {
			return PreconditionError("asset is locked")
		}
		out.PreviousStatus = asset.Status
		if err := a.transition(dbc, asset, ev, nil); err != nil {
			return err
		}

		entry := &review.ApprovalLog{
			AssetID:      asset.ID,
			AssetVersion: asset.CurrentVersion,
			ActorID:      in.Actor.UserID,
			Action:       action,
		}
		if note != "" {
			entry.Comment = &note
		}
		if _, err := a.deps.Approvals.Create(dbc, []*review.ApprovalLog{entry}); err != nil {
			return err
		}
		out.Asset = *asset
		out.Log = *entry

		if action != review.ActionApproved || asset.RequestID == nil {
			return nil
		}
		req, err := a.deps.Requests.LockByID(dbc, *asset.RequestID)
		if err != nil {
			return err
		}
		if req == nil || req.Status == review.RequestCompleted {
			return nil
		}
		now := time.Now().UTC()
		ok, err := a.deps.Base.CASGuard.SwapRequest(dbc, req.ID, []review.RequestStatus{
			review.RequestPending,
			review.RequestInProgress,
			review.RequestCancelled,
		}, map[string]any{
			"status":     string(review.RequestCompleted),
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		out.PreviousRequestStatus = req.Status
		req.Status = review.RequestCompleted
		req.UpdatedAt = now
		out.CompletedRequest = req
		return nil
	})
	return out, err
}

func (a *assetAggregate) SetLocked(ctx context.Context, in domainagg.LockInput) (domainagg.TransitionResult, error) {
	const op = "Review.Asset.SetLocked"
	var out domainagg.TransitionResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanLock(in.Actor, asset) {
			return ForbiddenError("actor cannot lock assets")
		}
		out.PreviousStatus = asset.Status
		if asset.Locked == in.Locked {
			out.Asset = *asset
			return nil
		}
		now := time.Now().UTC()
		ok, err := a.deps.Base.CASGuard.SwapAsset(dbc, asset, map[string]any{
			"locked":     in.Locked,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if err := requireSwapped(ok, "asset"); err != nil {
			return err
		}
		asset.Locked = in.Locked
		asset.UpdatedAt = now
		out.Asset = *asset
		return nil
	})
	return out, err
}

func (a *assetAggregate) LinkRequest(ctx context.Context, in domainagg.LinkRequestInput) (domainagg.LinkRequestResult, error) {
	const op = "Review.Asset.LinkRequest"
	var out domainagg.LinkRequestResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if in.RequestID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing request_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		isUploader := asset.UploaderID == in.Actor.UserID && a.deps.Policy.CanUpload(in.Actor, asset.ProjectID)
		if !isUploader && !a.deps.Policy.CanManageRequests(in.Actor, asset.ProjectID) {
			return ForbiddenError("actor cannot link requests")
		}
		req, err := a.deps.Requests.LockByID(dbc, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil || req.ProjectID != asset.ProjectID {
			return NotFoundError("request not found")
		}
		if asset.RequestID == nil || *asset.RequestID != req.ID {
			now := time.Now().UTC()
			if err := a.deps.Assets.UpdateFields(dbc, asset.ID, map[string]interface{}{
				"request_id": req.ID,
				"updated_at": now,
			}); err != nil {
				return err
			}
			id := req.ID
			asset.RequestID = &id
			asset.UpdatedAt = now
		}
		link, err := a.linkRequest(dbc, req, asset.UploaderID)
		if err != nil {
			return err
		}
		out.Asset = *asset
		out.Link = link
		return nil
	})
	return out, err
}

func (a *assetAggregate) DeleteAsset(ctx context.Context, in domainagg.DeleteAssetInput) (domainagg.DeleteAssetResult, error) {
	const op = "Review.Asset.DeleteAsset"
	var out domainagg.DeleteAssetResult
	if in.AssetID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing asset_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "asset aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		asset, err := a.lockVisible(dbc, in.Actor, in.AssetID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanDeleteAsset(in.Actor, asset) {
			return ForbiddenError("actor cannot delete this asset")
		}
		if asset.Locked {
			return PreconditionError("asset is locked")
		}

		versions, err := a.deps.Versions.ListByAsset(dbc, asset.ID, nil)
		if err != nil {
			return err
		}
		commentIDs, err := a.deps.Comments.ListIDsByAssetIDs(dbc, []uuid.UUID{asset.ID})
		if err != nil {
			return err
		}
		attachments, err := a.deps.Comments.ListAttachments(dbc, commentIDs)
		if err != nil {
			return err
		}

		if err := a.deps.Comments.DeleteByIDs(dbc, commentIDs); err != nil {
			return err
		}
		if err := a.deps.Approvals.DeleteByAssetIDs(dbc, []uuid.UUID{asset.ID}); err != nil {
			return err
		}
		if err := a.deps.Versions.DeleteByAssetIDs(dbc, []uuid.UUID{asset.ID}); err != nil {
			return err
		}
		if err := a.deps.Assets.DeleteByIDs(dbc, []uuid.UUID{asset.ID}); err != nil {
			return err
		}

		out.Asset = *asset
		out.FilePaths = make([]string, 0, len(versions)+len(attachments))
		for _, v := range versions {
			out.FilePaths = append(out.FilePaths, v.FilePath)
		}
		for _, att := range attachments {
			out.FilePaths = append(out.FilePaths, att.Path)
		}
		return nil
	})
	return out, err
}

// lockVisible locks the asset row and hides it from actors that may not see it.
func (a *assetAggregate) lockVisible(dbc dbctx.Context, actor review.Actor, id uuid.UUID) (*review.Asset, error) {
	asset, err := a.deps.Assets.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if asset == nil || !a.deps.Policy.CanSee(actor, asset) {
		return nil, NotFoundError("asset not found")
	}
	return asset, nil
}

// transition applies ev with a compare-and-swap on the (status, current_version) pair read under lock.
func (a *assetAggregate) transition(dbc dbctx.Context, asset *review.Asset, ev review.Event, extra map[string]any) error {
	next, ok := review.Next(asset.Status, ev)
	if !ok {
		return PreconditionError(fmt.Sprintf("%s not allowed from %s", ev, asset.Status))
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     string(next),
		"updated_at": now,
	}
	for k, v := range extra {
		updates[k] = v
	}
	ok, err := a.deps.Base.CASGuard.SwapAsset(dbc, asset, updates)
	if err != nil {
		return err
	}
	if err := requireSwapped(ok, "asset"); err != nil {
		return err
	}
	asset.Status = next
	asset.UpdatedAt = now
	return nil
}

// linkRequest assigns an open, unassigned request to the uploader. An existing
// assignee is kept and closed requests are left alone.
func (a *assetAggregate) linkRequest(dbc dbctx.Context, req *review.Request, uploaderID uuid.UUID) (domainagg.RequestLink, error) {
	link := domainagg.RequestLink{Request: *req}
	if isClosedRequest(req.Status) {
		return link, nil
	}
	if req.AssigneeID != nil && *req.AssigneeID != uuid.Nil {
		return link, nil
	}
	ok, err := a.deps.Requests.AssignIfUnassigned(dbc, req.ID, uploaderID)
	if err != nil {
		return link, err
	}
	if ok {
		id := uploaderID
		link.Request.AssigneeID = &id
		link.AutoAssigned = true
	}
	return link, nil
}

func validateVersionFile(f domainagg.VersionFile) error {
	if strings.TrimSpace(f.FilePath) == "" {
		return fmt.Errorf("missing file path")
	}
	if f.FileSize < 0 {
		return fmt.Errorf("file size must be >= 0")
	}
	if utf8.RuneCountInString(f.Notes) > maxNotesRunes {
		return fmt.Errorf("notes too long")
	}
	return nil
}

func newAssetVersion(assetID uuid.UUID, number int, uploaderID uuid.UUID, f domainagg.VersionFile) *review.AssetVersion {
	return &review.AssetVersion{
		AssetID:       assetID,
		VersionNumber: number,
		FilePath:      strings.TrimSpace(f.FilePath),
		FileSize:      f.FileSize,
		MimeType:      strings.TrimSpace(f.MimeType),
		UploaderID:    uploaderID,
		Notes:         strings.TrimSpace(f.Notes),
	}
}

func utcTimePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
