package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
)

func TestRequestServiceCreate(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.requests.Create(f.as(f.creative), CreateRequestRequest{ProjectID: f.project, Title: "Nope"})
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.requests.Create(f.as(f.pm), CreateRequestRequest{ProjectID: f.project, Title: "  "})
	requireCode(t, err, domainagg.CodeValidation)
	_, err = f.requests.Create(f.as(f.pm), CreateRequestRequest{ProjectID: f.project, Title: strings.Repeat("x", 256)})
	requireCode(t, err, domainagg.CodeValidation)

	assignee := f.creative.UserID
	req, err := f.requests.Create(f.as(f.pm), CreateRequestRequest{ProjectID: f.project, Title: " Launch kit ", AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Title != "Launch kit" || req.Status != review.RequestPending || req.CreatorID != f.pm.UserID {
		t.Fatalf("request: got=%+v", req)
	}
	if got := f.notifier.recipients(notify.KindRequestAssigned); !sameIDs(got, f.creative.UserID) {
		t.Fatalf("assignment recipients: want=[creative] got=%v", got)
	}

	got, err := f.requests.Get(f.as(f.reviewer), req.ID)
	if err != nil || got.ID != req.ID {
		t.Fatalf("Get member: got=%v err=%v", got, err)
	}
	outsider := review.Actor{UserID: uuid.New(), Role: review.RolePM, ProjectIDs: []uuid.UUID{uuid.New()}}
	_, err = f.requests.Get(f.as(outsider), req.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.requests.Get(f.as(f.pm), uuid.New())
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestRequestServiceAssignAndStatus(t *testing.T) {
	f := newServiceFixture(t)
	assignee := f.creative.UserID
	req, err := f.requests.Create(f.as(f.pm), CreateRequestRequest{ProjectID: f.project, Title: "Social set", AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.notifier.reset()

	_, err = f.requests.Assign(f.as(f.creative), req.ID, f.creative2.UserID)
	requireCode(t, err, domainagg.CodeForbidden)

	same, err := f.requests.Assign(f.as(f.pm), req.ID, f.creative.UserID)
	if err != nil || same.Changed {
		t.Fatalf("same assignee: want unchanged got changed=%v err=%v", same != nil && same.Changed, err)
	}
	if got := f.notifier.total(); got != 0 {
		t.Fatalf("unchanged assignment notified: %d", got)
	}

	moved, err := f.requests.Assign(f.as(f.pm), req.ID, f.creative2.UserID)
	if err != nil || !moved.Changed {
		t.Fatalf("reassign: changed=%v err=%v", moved != nil && moved.Changed, err)
	}
	if moved.PreviousAssignee == nil || *moved.PreviousAssignee != f.creative.UserID {
		t.Fatalf("previous assignee: got=%v", moved.PreviousAssignee)
	}
	if got := f.notifier.recipients(notify.KindRequestAssigned); !sameIDs(got, f.creative2.UserID) {
		t.Fatalf("assignment recipients: want=[creative2] got=%v", got)
	}

	_, err = f.requests.ChangeStatus(f.as(f.creative), req.ID, review.RequestInProgress)
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.requests.ChangeStatus(f.as(f.creative2), req.ID, review.RequestStatus("paused"))
	requireCode(t, err, domainagg.CodeValidation)

	f.notifier.reset()
	res, err := f.requests.ChangeStatus(f.as(f.creative2), req.ID, review.RequestInProgress)
	if err != nil || !res.Changed || res.PreviousStatus != review.RequestPending {
		t.Fatalf("ChangeStatus: got=%+v err=%v", res, err)
	}
	if got := f.notifier.recipients(notify.KindRequestStatusChanged); !sameIDs(got, f.pm.UserID) {
		t.Fatalf("status recipients: want=[pm] got=%v", got)
	}
	f.notifier.reset()

	res, err = f.requests.ChangeStatus(f.as(f.creative2), req.ID, review.RequestInProgress)
	if err != nil || res.Changed {
		t.Fatalf("repeat status: want unchanged got=%+v err=%v", res, err)
	}
	if got := f.notifier.total(); got != 0 {
		t.Fatalf("unchanged status notified: %d", got)
	}

	if _, err := f.requests.ChangeStatus(f.as(f.pm), req.ID, review.RequestCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = f.requests.Assign(f.as(f.pm), req.ID, f.creative.UserID)
	requireCode(t, err, domainagg.CodePreconditionFailed)
}
