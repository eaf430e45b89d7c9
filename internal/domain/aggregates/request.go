package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

// RequestAggregateContract covers assignee and status changes made outside asset approval.
var RequestAggregateContract = Contract{
	Name: "Review.RequestAggregate",
	Root: "request",
	Lock: LockRowThenSwap,
}

type RequestAggregate interface {
	Aggregate

	Assign(ctx context.Context, in AssignRequestInput) (RequestChangeResult, error)
	ChangeStatus(ctx context.Context, in ChangeRequestStatusInput) (RequestChangeResult, error)
}

type AssignRequestInput struct {
	Actor      review.Actor
	RequestID  uuid.UUID
	AssigneeID uuid.UUID
}

type ChangeRequestStatusInput struct {
	Actor     review.Actor
	RequestID uuid.UUID
	Status    review.RequestStatus
}

type RequestChangeResult struct {
	Request          review.Request
	PreviousStatus   review.RequestStatus
	PreviousAssignee *uuid.UUID
	Changed          bool
}
