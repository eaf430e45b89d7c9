package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

type MemberSettings struct {
	Role            review.Role
	NotifyComments  bool
	NotifyApprovals bool
	NotifyUploads   bool
}

// ProjectService manages membership rows that carry notification opt-ins.
type ProjectService interface {
	UpsertMember(ctx context.Context, projectID, userID uuid.UUID, in MemberSettings) (*review.ProjectMember, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*review.ProjectMember, error)
}

type projectService struct {
	log     *logger.Logger
	policy  *policy.Policy
	members repos.ProjectMemberRepo
}

func NewProjectService(log *logger.Logger, pol *policy.Policy, members repos.ProjectMemberRepo) ProjectService {
	return &projectService{log: log.With("service", "ProjectService"), policy: pol, members: members}
}

func (s *projectService) UpsertMember(ctx context.Context, projectID, userID uuid.UUID, in MemberSettings) (*review.ProjectMember, error) {
	const op = "ProjectService.UpsertMember"
	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if projectID == uuid.Nil || userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or user_id", nil)
	}
	role, ok := review.ParseRole(string(in.Role))
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown role", nil)
	}
	// Members may change their own opt-ins; anything else needs request management rights.
	self := actor.UserID == userID && actor.MemberOf(projectID)
	if !self && !s.policy.CanManageRequests(actor, projectID) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot manage members of this project", nil)
	}
	dbc := dbctx.New(ctx)
	if self && !s.policy.CanManageRequests(actor, projectID) {
		current, err := s.members.Get(dbc, projectID, userID)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "load member", err)
		}
		if current == nil {
			return nil, notFound(op, "membership")
		}
		role, _ = review.ParseRole(current.Role)
	}
	row := &review.ProjectMember{
		ProjectID:       projectID,
		UserID:          userID,
		Role:            string(role),
		NotifyComments:  in.NotifyComments,
		NotifyApprovals: in.NotifyApprovals,
		NotifyUploads:   in.NotifyUploads,
	}
	if err := s.members.Upsert(dbc, []*review.ProjectMember{row}); err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "upsert member", err)
	}
	return s.members.Get(dbc, projectID, userID)
}

func (s *projectService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*review.ProjectMember, error) {
	const op = "ProjectService.ListMembers"
	actor, err := ActorFromContext(ctx, op)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAccessProject(actor, projectID) {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "actor cannot access this project", nil)
	}
	rows, err := s.members.ListByProject(dbctx.New(ctx), projectID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "list members", err)
	}
	return rows, nil
}
