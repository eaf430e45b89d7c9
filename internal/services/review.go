package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/platform/ctxutil"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
)

// Notifier hands recipient sets to delivery after commit. *notify.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, targets []notify.Target, payload notify.Payload)
}

// ActorFromContext converts gateway-asserted request data into a review actor.
func ActorFromContext(ctx context.Context, op string) (review.Actor, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return review.Actor{}, domainagg.NewError(domainagg.CodeForbidden, op, "missing actor", nil)
	}
	role, ok := review.ParseRole(rd.Role)
	if !ok {
		return review.Actor{}, domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf("unknown role %q", strings.TrimSpace(rd.Role)), nil)
	}
	return review.Actor{UserID: rd.UserID, Role: role, ProjectIDs: rd.ProjectIDs}, nil
}

func notFound(op, what string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, what+" not found", nil)
}

// visibleSubscribers keeps opted-in members that may see asset.
func visibleSubscribers(pol *policy.Policy, members []*review.ProjectMember, asset *review.Asset, pick func(review.ProjectMember) bool) []uuid.UUID {
	rows := make([]review.ProjectMember, 0, len(members))
	for _, m := range members {
		if m != nil {
			rows = append(rows, *m)
		}
	}
	return notify.Subscribers(rows, func(m review.ProjectMember) bool {
		return pick(m) && pol.MemberCanSee(m, asset)
	})
}

func assetPayload(actor review.Actor, asset review.Asset, title string) notify.Payload {
	id := asset.ID
	p := notify.Payload{
		ProjectID:    asset.ProjectID,
		AssetID:      &id,
		ActorID:      actor.UserID,
		Title:        title,
		AssetVersion: asset.CurrentVersion,
	}
	if asset.RequestID != nil {
		rid := *asset.RequestID
		p.RequestID = &rid
	}
	return p
}

func requestPayload(actor review.Actor, req review.Request, title string) notify.Payload {
	id := req.ID
	return notify.Payload{
		ProjectID: req.ProjectID,
		RequestID: &id,
		ActorID:   actor.UserID,
		Title:     title,
		Extra:     map[string]any{"status": string(req.Status)},
	}
}

// logFields merges trace ids into kv pairs.
func logFields(ctx context.Context, kv ...interface{}) []interface{} {
	return append(kv, ctxutil.TraceFields(ctx)...)
}

func warnNotify(log *logger.Logger, ctx context.Context, msg string, err error, kv ...interface{}) {
	if log == nil || err == nil {
		return
	}
	log.Warn(msg, logFields(ctx, append(kv, "error", err)...)...)
}
