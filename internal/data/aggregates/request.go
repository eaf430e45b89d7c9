package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

type RequestAggregateDeps struct {
	Base   BaseDeps
	Policy *policy.Policy

	Requests repos.RequestRepo
}

type requestAggregate struct {
	deps RequestAggregateDeps
}

func NewRequestAggregate(deps RequestAggregateDeps) domainagg.RequestAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	return &requestAggregate{deps: deps}
}

func (a *requestAggregate) Contract() domainagg.Contract {
	return domainagg.RequestAggregateContract
}

func (a *requestAggregate) Assign(ctx context.Context, in domainagg.AssignRequestInput) (domainagg.RequestChangeResult, error) {
	const op = "Review.Request.Assign"
	var out domainagg.RequestChangeResult
	if in.RequestID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing request_id", nil)
	}
	if in.AssigneeID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing assignee_id", nil)
	}
	if a.deps.Requests == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "request aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		req, err := a.lockAccessible(dbc, in.Actor, in.RequestID)
		if err != nil {
			return err
		}
		if !a.deps.Policy.CanManageRequests(in.Actor, req.ProjectID) {
			return ForbiddenError("actor cannot assign requests")
		}
		if isClosedRequest(req.Status) {
			return PreconditionError(fmt.Sprintf("request is %s", req.Status))
		}
		out.PreviousStatus = req.Status
		out.PreviousAssignee = req.AssigneeID
		if req.AssigneeID != nil && *req.AssigneeID == in.AssigneeID {
			out.Request = *req
			return nil
		}
		now := time.Now().UTC()
		if err := a.deps.Requests.UpdateFields(dbc, req.ID, map[string]interface{}{
			"assignee_id": in.AssigneeID,
			"updated_at":  now,
		}); err != nil {
			return err
		}
		assignee := in.AssigneeID
		req.AssigneeID = &assignee
		req.UpdatedAt = now
		out.Request = *req
		out.Changed = true
		return nil
	})
	return out, err
}

func (a *requestAggregate) ChangeStatus(ctx context.Context, in domainagg.ChangeRequestStatusInput) (domainagg.RequestChangeResult, error) {
	const op = "Review.Request.ChangeStatus"
	var out domainagg.RequestChangeResult
	if in.RequestID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing request_id", nil)
	}
	status, ok := review.ParseRequestStatus(string(in.Status))
	if !ok {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown request status %q", in.Status), nil)
	}
	if a.deps.Requests == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "request aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		req, err := a.lockAccessible(dbc, in.Actor, in.RequestID)
		if err != nil {
			return err
		}
		isAssignee := req.AssigneeID != nil && *req.AssigneeID == in.Actor.UserID
		if !isAssignee && !a.deps.Policy.CanManageRequests(in.Actor, req.ProjectID) {
			return ForbiddenError("actor cannot change request status")
		}
		out.PreviousStatus = req.Status
		out.PreviousAssignee = req.AssigneeID
		if req.Status == status {
			out.Request = *req
			return nil
		}
		now := time.Now().UTC()
		ok, err := a.deps.Base.CASGuard.SwapRequest(dbc, req.ID, []review.RequestStatus{req.Status}, map[string]any{
			"status":     string(status),
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if err := requireSwapped(ok, "request"); err != nil {
			return err
		}
		req.Status = status
		req.UpdatedAt = now
		out.Request = *req
		out.Changed = true
		return nil
	})
	return out, err
}

func (a *requestAggregate) lockAccessible(dbc dbctx.Context, actor review.Actor, id uuid.UUID) (*review.Request, error) {
	req, err := a.deps.Requests.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if req == nil || !a.deps.Policy.CanAccessProject(actor, req.ProjectID) {
		return nil, NotFoundError("request not found")
	}
	return req, nil
}

func isClosedRequest(s review.RequestStatus) bool {
	return s == review.RequestCompleted || s == review.RequestCancelled
}
