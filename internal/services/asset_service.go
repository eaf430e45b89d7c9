package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/platform/storage"
)

// FileUpload is one uploaded file as received from the transport.
type FileUpload struct {
	Name     string
	Reader   io.Reader
	Size     int64
	MimeType string
	Notes    string
}

type CreateAssetRequest struct {
	ProjectID uuid.UUID
	RequestID *uuid.UUID
	Title     string
	Type      review.AssetType
	Deadline  *time.Time
	File      FileUpload
}

type AssetService interface {
	Create(ctx context.Context, in CreateAssetRequest) (*domainagg.CreateAssetResult, error)
	// Get returns the asset and records the view that may start the review.
	Get(ctx context.Context, assetID uuid.UUID) (*review.Asset, error)
	List(ctx context.Context, projectID uuid.UUID, statuses []review.AssetStatus) ([]*review.Asset, error)
	ListVersions(ctx context.Context, assetID uuid.UUID) ([]*review.AssetVersion, error)
	UploadVersion(ctx context.Context, assetID uuid.UUID, file FileUpload) (*domainagg.UploadVersionResult, error)
	SendToClient(ctx context.Context, assetID uuid.UUID) (*domainagg.TransitionResult, error)
	Approve(ctx context.Context, assetID uuid.UUID, comment string) (*domainagg.DecisionResult, error)
	RequestRevision(ctx context.Context, assetID uuid.UUID, comment string) (*domainagg.DecisionResult, error)
	SetLocked(ctx context.Context, assetID uuid.UUID, locked bool) (*domainagg.TransitionResult, error)
	LinkRequest(ctx context.Context, assetID, requestID uuid.UUID) (*domainagg.LinkRequestResult, error)
	Delete(ctx context.Context, assetID uuid.UUID) (*domainagg.DeleteAssetResult, error)
}

type AssetServiceDeps struct {
	Log       *logger.Logger
	Policy    *policy.Policy
	Aggregate domainagg.AssetAggregate
	Assets    repos.AssetRepo
	Versions  repos.AssetVersionRepo
	Requests  repos.RequestRepo
	Members   repos.ProjectMemberRepo
	Store     storage.Store
	Notifier  Notifier
	Metrics   *observability.Metrics
}

type assetService struct {
	log *logger.Logger
	AssetServiceDeps
}

func NewAssetService(deps AssetServiceDeps) AssetService {
	return &assetService{
		log:              deps.Log.With("service", "AssetService"),
		AssetServiceDeps: deps,
	}
}

func (s *assetService) Create(ctx context.Context, in CreateAssetRequest) (_ *domainagg.CreateAssetResult, err error) {
	const op = "AssetService.Create"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("project_id", in.ProjectID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if !s.Policy.CanUpload(actor, in.ProjectID) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot upload to this project", nil)
	}
	stored, err := s.storeFile(ctx, op, in.File)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.CreateAsset(ctx, domainagg.CreateAssetInput{
		Actor:     actor,
		ProjectID: in.ProjectID,
		RequestID: in.RequestID,
		Title:     in.Title,
		Type:      in.Type,
		Deadline:  in.Deadline,
		File:      versionFile(stored, in.File),
	})
	if err != nil {
		s.discard(ctx, stored.Path)
		return nil, err
	}
	s.log.Info("asset created", logFields(ctx, "asset_id", res.Asset.ID, "project_id", res.Asset.ProjectID, "actor_id", actor.UserID)...)
	s.notifyUpload(ctx, actor, res.Asset, res.Link)
	s.notifyLink(ctx, actor, res.Asset, res.Link)
	return &res, nil
}

func (s *assetService) Get(ctx context.Context, assetID uuid.UUID) (_ *review.Asset, err error) {
	const op = "AssetService.Get"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.RecordView(ctx, domainagg.RecordViewInput{Actor: actor, AssetID: assetID})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.log.Debug("asset moved into review", logFields(ctx, "asset_id", assetID, "actor_id", actor.UserID)...)
	}
	return &res.Asset, nil
}

func (s *assetService) List(ctx context.Context, projectID uuid.UUID, statuses []review.AssetStatus) (_ []*review.Asset, err error) {
	const op = "AssetService.List"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("project_id", projectID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if !s.Policy.CanAccessProject(actor, projectID) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot access this project", nil)
	}
	effective, ok := restrictStatuses(statuses, s.Policy.VisibleStatuses(actor))
	if !ok {
		return []*review.Asset{}, nil
	}
	rows, err := s.Assets.ListByProject(dbctx.New(ctx), projectID, effective)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "list assets", err)
	}
	return rows, nil
}

// restrictStatuses intersects a requested filter with the actor's visible set.
// A nil visible set means unrestricted; false means nothing can match.
func restrictStatuses(requested, visible []review.AssetStatus) ([]review.AssetStatus, bool) {
	if visible == nil {
		return requested, true
	}
	if len(requested) == 0 {
		return visible, true
	}
	allowed := map[review.AssetStatus]bool{}
	for _, st := range visible {
		allowed[st] = true
	}
	out := make([]review.AssetStatus, 0, len(requested))
	for _, st := range requested {
		if allowed[st] {
			out = append(out, st)
		}
	}
	return out, len(out) > 0
}

func (s *assetService) ListVersions(ctx context.Context, assetID uuid.UUID) (_ []*review.AssetVersion, err error) {
	const op = "AssetService.ListVersions"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	asset, err := s.Assets.GetByID(dbc, assetID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "load asset", err)
	}
	if !s.Policy.CanSee(actor, asset) {
		return nil, notFound(op, "asset")
	}
	rows, err := s.Versions.ListByAsset(dbc, assetID, nil)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "list versions", err)
	}
	return rows, nil
}

func (s *assetService) UploadVersion(ctx context.Context, assetID uuid.UUID, file FileUpload) (_ *domainagg.UploadVersionResult, err error) {
	const op = "AssetService.UploadVersion"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	stored, err := s.storeFile(ctx, op, file)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.UploadVersion(ctx, domainagg.UploadVersionInput{
		Actor:   actor,
		AssetID: assetID,
		File:    versionFile(stored, file),
	})
	if err != nil {
		s.discard(ctx, stored.Path)
		return nil, err
	}
	span.SetAttributes(attribute.Int("version", res.Version.VersionNumber))
	s.log.Info("asset version uploaded", logFields(ctx, "asset_id", assetID, "version", res.Version.VersionNumber, "actor_id", actor.UserID)...)
	s.notifyUpload(ctx, actor, res.Asset, nil)
	return &res, nil
}

func (s *assetService) SendToClient(ctx context.Context, assetID uuid.UUID) (_ *domainagg.TransitionResult, err error) {
	const op = "AssetService.SendToClient"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.SendToClient(ctx, domainagg.TransitionInput{Actor: actor, AssetID: assetID})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *assetService) Approve(ctx context.Context, assetID uuid.UUID, comment string) (_ *domainagg.DecisionResult, err error) {
	const op = "AssetService.Approve"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.Approve(ctx, domainagg.DecisionInput{Actor: actor, AssetID: assetID, Comment: comment})
	if err != nil {
		return nil, err
	}
	s.log.Info("asset approved", logFields(ctx, "asset_id", assetID, "version", res.Log.AssetVersion, "actor_id", actor.UserID)...)

	members, err := s.Members.ListByProject(dbctx.New(ctx), res.Asset.ProjectID)
	if err != nil {
		warnNotify(s.log, ctx, "approval notification skipped", err, "asset_id", assetID)
	} else {
		optedIn := visibleSubscribers(s.Policy, members, &res.Asset, notify.WantsApprovals)
		payload := assetPayload(actor, res.Asset, res.Asset.Title)
		payload.Message = commentText(res.Log.Comment)
		s.Notifier.Notify(ctx, notify.ForApproval(actor.UserID, res.Asset.UploaderID, optedIn), payload)
	}
	if res.CompletedRequest != nil {
		req := *res.CompletedRequest
		s.Notifier.Notify(ctx, notify.ForStatusChange(actor.UserID, req.AssigneeID, req.CreatorID), requestPayload(actor, req, req.Title))
	}
	return &res, nil
}

func (s *assetService) RequestRevision(ctx context.Context, assetID uuid.UUID, comment string) (_ *domainagg.DecisionResult, err error) {
	const op = "AssetService.RequestRevision"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.RequestRevision(ctx, domainagg.DecisionInput{Actor: actor, AssetID: assetID, Comment: comment})
	if err != nil {
		return nil, err
	}
	s.log.Info("revision requested", logFields(ctx, "asset_id", assetID, "version", res.Log.AssetVersion, "actor_id", actor.UserID)...)

	payload := assetPayload(actor, res.Asset, res.Asset.Title)
	payload.Message = commentText(res.Log.Comment)
	s.Notifier.Notify(ctx, notify.ForRevision(actor.UserID, res.Asset.UploaderID), payload)
	return &res, nil
}

func (s *assetService) SetLocked(ctx context.Context, assetID uuid.UUID, locked bool) (_ *domainagg.TransitionResult, err error) {
	const op = "AssetService.SetLocked"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()), attribute.Bool("locked", locked))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.SetLocked(ctx, domainagg.LockInput{Actor: actor, AssetID: assetID, Locked: locked})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *assetService) LinkRequest(ctx context.Context, assetID, requestID uuid.UUID) (_ *domainagg.LinkRequestResult, err error) {
	const op = "AssetService.LinkRequest"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("asset_id", assetID.String()),
		attribute.String("request_id", requestID.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.LinkRequest(ctx, domainagg.LinkRequestInput{Actor: actor, AssetID: assetID, RequestID: requestID})
	if err != nil {
		return nil, err
	}
	link := res.Link
	s.notifyLink(ctx, actor, res.Asset, &link)
	return &res, nil
}

func (s *assetService) Delete(ctx context.Context, assetID uuid.UUID) (_ *domainagg.DeleteAssetResult, err error) {
	const op = "AssetService.Delete"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("asset_id", assetID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.Aggregate.DeleteAsset(ctx, domainagg.DeleteAssetInput{Actor: actor, AssetID: assetID})
	if err != nil {
		return nil, err
	}
	s.log.Info("asset deleted", logFields(ctx, "asset_id", assetID, "files", len(res.FilePaths), "actor_id", actor.UserID)...)
	for _, p := range res.FilePaths {
		s.discard(ctx, p)
	}
	return &res, nil
}

func (s *assetService) storeFile(ctx context.Context, op string, f FileUpload) (storage.StoredFile, error) {
	if f.Reader == nil {
		return storage.StoredFile{}, domainagg.NewError(domainagg.CodeValidation, op, "missing file", nil)
	}
	if s.Store == nil {
		return storage.StoredFile{}, domainagg.NewError(domainagg.CodeInternal, op, "storage not configured", nil)
	}
	stored, err := s.Store.Store(ctx, f.Reader, f.Name)
	if err != nil {
		return storage.StoredFile{}, domainagg.NewError(domainagg.CodeRetryable, op, "store file", err)
	}
	return stored, nil
}

// discard removes an object after its rows are gone or never committed. Failures are logged only.
func (s *assetService) discard(ctx context.Context, path string) {
	if s.Store == nil || strings.TrimSpace(path) == "" {
		return
	}
	ok, err := s.Store.Delete(context.WithoutCancel(ctx), path)
	switch {
	case err != nil:
		s.Metrics.IncStorageCleanup("error")
		s.log.Warn("object cleanup failed", logFields(ctx, "path", path, "error", err)...)
	case ok:
		s.Metrics.IncStorageCleanup("deleted")
	default:
		s.Metrics.IncStorageCleanup("missing")
	}
}

func versionFile(stored storage.StoredFile, f FileUpload) domainagg.VersionFile {
	mime := strings.TrimSpace(f.MimeType)
	if mime == "" {
		mime = storage.ContentTypeForKey(stored.Path)
	}
	return domainagg.VersionFile{
		FilePath: stored.Path,
		FileSize: f.Size,
		MimeType: mime,
		Notes:    f.Notes,
	}
}

// notifyUpload tells upload subscribers and the request creator about a new version.
func (s *assetService) notifyUpload(ctx context.Context, actor review.Actor, asset review.Asset, link *domainagg.RequestLink) {
	dbc := dbctx.New(ctx)
	members, err := s.Members.ListByProject(dbc, asset.ProjectID)
	if err != nil {
		warnNotify(s.log, ctx, "upload notification skipped", err, "asset_id", asset.ID)
		return
	}
	var creator *uuid.UUID
	switch {
	case link != nil:
		id := link.Request.CreatorID
		creator = &id
	case asset.RequestID != nil:
		req, err := s.Requests.GetByID(dbc, *asset.RequestID)
		if err != nil {
			warnNotify(s.log, ctx, "request creator lookup failed", err, "request_id", *asset.RequestID)
		} else if req != nil {
			id := req.CreatorID
			creator = &id
		}
	}
	optedIn := visibleSubscribers(s.Policy, members, &asset, notify.WantsUploads)
	s.Notifier.Notify(ctx, notify.ForVersionUpload(actor.UserID, optedIn, creator), assetPayload(actor, asset, asset.Title))
}

func (s *assetService) notifyLink(ctx context.Context, actor review.Actor, asset review.Asset, link *domainagg.RequestLink) {
	if link == nil || !link.AutoAssigned || link.Request.AssigneeID == nil {
		return
	}
	req := link.Request
	payload := requestPayload(actor, req, req.Title)
	id := asset.ID
	payload.AssetID = &id
	s.Notifier.Notify(ctx, notify.ForAssignment(actor.UserID, *req.AssigneeID), payload)
}

func commentText(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}
