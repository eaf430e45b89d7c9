package services

import (
	"context"
	"strings"
	"unicode/utf8"

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
)

const maxRequestTitleRunes = 255

type CreateRequestRequest struct {
	ProjectID  uuid.UUID
	Title      string
	AssigneeID *uuid.UUID
}

type RequestService interface {
	Create(ctx context.Context, in CreateRequestRequest) (*review.Request, error)
	Get(ctx context.Context, requestID uuid.UUID) (*review.Request, error)
	Assign(ctx context.Context, requestID, assigneeID uuid.UUID) (*domainagg.RequestChangeResult, error)
	ChangeStatus(ctx context.Context, requestID uuid.UUID, status review.RequestStatus) (*domainagg.RequestChangeResult, error)
}

type requestService struct {
	log       *logger.Logger
	policy    *policy.Policy
	aggregate domainagg.RequestAggregate
	requests  repos.RequestRepo
	notifier  Notifier
}

func NewRequestService(log *logger.Logger, pol *policy.Policy, aggregate domainagg.RequestAggregate, requests repos.RequestRepo, notifier Notifier) RequestService {
	return &requestService{
		log:       log.With("service", "RequestService"),
		policy:    pol,
		aggregate: aggregate,
		requests:  requests,
		notifier:  notifier,
	}
}

func (s *requestService) Create(ctx context.Context, in CreateRequestRequest) (_ *review.Request, err error) {
	const op = "RequestService.Create"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("project_id", in.ProjectID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxRequestTitleRunes {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "title must be 1..255 characters", nil)
	}
	if !s.policy.CanManageRequests(actor, in.ProjectID) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot manage requests in this project", nil)
	}
	row := &review.Request{
		ProjectID: in.ProjectID,
		Title:     title,
		Status:    review.RequestPending,
		CreatorID: actor.UserID,
	}
	if in.AssigneeID != nil && *in.AssigneeID != uuid.Nil {
		id := *in.AssigneeID
		row.AssigneeID = &id
	}
	created, err := s.requests.Create(dbctx.New(ctx), []*review.Request{row})
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "create request", err)
	}
	req := created[0]
	if req.AssigneeID != nil {
		s.notifier.Notify(ctx, notify.ForAssignment(actor.UserID, *req.AssigneeID), requestPayload(actor, *req, req.Title))
	}
	return req, nil
}

func (s *requestService) Get(ctx context.Context, requestID uuid.UUID) (_ *review.Request, err error) {
	const op = "RequestService.Get"
	ctx, span := observability.StartSpan(ctx, op, attribute.String("request_id", requestID.String()))
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(dbctx.New(ctx), requestID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "load request", err)
	}
	if req == nil || !s.policy.CanAccessProject(actor, req.ProjectID) {
		return nil, notFound(op, "request")
	}
	return req, nil
}

func (s *requestService) Assign(ctx context.Context, requestID, assigneeID uuid.UUID) (_ *domainagg.RequestChangeResult, err error) {
	const op = "RequestService.Assign"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("request_id", requestID.String()),
		attribute.String("assignee_id", assigneeID.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregate.Assign(ctx, domainagg.AssignRequestInput{Actor: actor, RequestID: requestID, AssigneeID: assigneeID})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.notifier.Notify(ctx, notify.ForAssignment(actor.UserID, assigneeID), requestPayload(actor, res.Request, res.Request.Title))
	}
	return &res, nil
}

func (s *requestService) ChangeStatus(ctx context.Context, requestID uuid.UUID, status review.RequestStatus) (_ *domainagg.RequestChangeResult, err error) {
	const op = "RequestService.ChangeStatus"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("request_id", requestID.String()),
		attribute.String("status", string(status)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregate.ChangeStatus(ctx, domainagg.ChangeRequestStatusInput{Actor: actor, RequestID: requestID, Status: status})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		req := res.Request
		payload := requestPayload(actor, req, req.Title)
		payload.Extra["previous_status"] = string(res.PreviousStatus)
		s.notifier.Notify(ctx, notify.ForStatusChange(actor.UserID, req.AssigneeID, req.CreatorID), payload)
	}
	return &res, nil
}
