package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

// AssetAggregateContract covers asset status, version numbering, the lock flag,
// the approval log and request linkage. Deletes cascade to comments.
var AssetAggregateContract = Contract{
	Name:   "Review.AssetAggregate",
	Root:   "asset",
	Writes: []string{"asset_version", "approval_log", "request", "comment", "comment_attachment"},
	Lock:   LockRowThenSwap,
}

// AssetAggregate owns the asset status machine.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeForbidden, CodePreconditionFailed, CodeRetryable, CodeInternal.
type AssetAggregate interface {
	Aggregate

	// CreateAsset stores version 1 in pending_review and links the optional request.
	CreateAsset(ctx context.Context, in CreateAssetInput) (CreateAssetResult, error)

	// RecordView moves pending_review to in_review when a privileged reviewer opens the asset.
	RecordView(ctx context.Context, in RecordViewInput) (RecordViewResult, error)

	// UploadVersion appends version N+1 and resets status to pending_review.
	UploadVersion(ctx context.Context, in UploadVersionInput) (UploadVersionResult, error)

	// SendToClient moves in_review to client_review.
	SendToClient(ctx context.Context, in TransitionInput) (TransitionResult, error)

	// Approve records an approval and completes the linked request.
	Approve(ctx context.Context, in DecisionInput) (DecisionResult, error)

	// RequestRevision records a revision request; Comment is required.
	RequestRevision(ctx context.Context, in DecisionInput) (DecisionResult, error)

	// SetLocked toggles the lock flag.
	SetLocked(ctx context.Context, in LockInput) (TransitionResult, error)

	// LinkRequest attaches the asset to a request and auto-assigns an unassigned request.
	LinkRequest(ctx context.Context, in LinkRequestInput) (LinkRequestResult, error)

	// DeleteAsset removes the asset with its versions, comments and approval logs.
	DeleteAsset(ctx context.Context, in DeleteAssetInput) (DeleteAssetResult, error)
}

type VersionFile struct {
	FilePath string
	FileSize int64
	MimeType string
	Notes    string
}

type CreateAssetInput struct {
	Actor     review.Actor
	ProjectID uuid.UUID
	RequestID *uuid.UUID
	Title     string
	Type      review.AssetType
	Deadline  *time.Time
	File      VersionFile
}

type CreateAssetResult struct {
	Asset   review.Asset
	Version review.AssetVersion
	Link    *RequestLink
}

// RequestLink reports the request-side effect of linking an asset.
type RequestLink struct {
	Request      review.Request
	AutoAssigned bool
}

type RecordViewInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
}

type RecordViewResult struct {
	Asset   review.Asset
	Changed bool
}

type UploadVersionInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
	File    VersionFile
}

type UploadVersionResult struct {
	Asset          review.Asset
	Version        review.AssetVersion
	PreviousStatus review.AssetStatus
}

type TransitionInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
}

type TransitionResult struct {
	Asset          review.Asset
	PreviousStatus review.AssetStatus
}

type DecisionInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
	Comment string
}

type DecisionResult struct {
	Asset          review.Asset
	Log            review.ApprovalLog
	PreviousStatus review.AssetStatus
	// CompletedRequest is set when approval moved the linked request to completed.
	CompletedRequest      *review.Request
	PreviousRequestStatus review.RequestStatus
}

type LockInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
	Locked  bool
}

type LinkRequestInput struct {
	Actor     review.Actor
	AssetID   uuid.UUID
	RequestID uuid.UUID
}

type LinkRequestResult struct {
	Asset review.Asset
	Link  RequestLink
}

type DeleteAssetInput struct {
	Actor   review.Actor
	AssetID uuid.UUID
}

type DeleteAssetResult struct {
	Asset     review.Asset
	FilePaths []string
}
