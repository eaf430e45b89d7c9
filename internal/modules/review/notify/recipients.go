package notify

import (
	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

type Kind string

const (
	KindCommentNew           Kind = "comment_new"
	KindCommentReply         Kind = "comment_reply"
	KindCommentMention       Kind = "comment_mention"
	KindVersionUploaded      Kind = "version_uploaded"
	KindAssetApproved        Kind = "asset_approved"
	KindRevisionRequested    Kind = "revision_requested"
	KindRequestAssigned      Kind = "request_assigned"
	KindRequestStatusChanged Kind = "request_status_changed"
)

// Target is one recipient of one notification kind.
type Target struct {
	UserID uuid.UUID
	Kind   Kind
}

// idSet is an insertion-ordered set of user ids.
type idSet struct {
	order []uuid.UUID
	has   map[uuid.UUID]bool
}

func newIDSet(ids ...uuid.UUID) *idSet {
	s := &idSet{has: map[uuid.UUID]bool{}}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *idSet) add(id uuid.UUID) {
	if id == uuid.Nil || s.has[id] {
		return
	}
	s.has[id] = true
	s.order = append(s.order, id)
}

func (s *idSet) remove(id uuid.UUID) {
	if !s.has[id] {
		return
	}
	delete(s.has, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *idSet) targets(kind Kind) []Target {
	out := make([]Target, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Target{UserID: id, Kind: kind})
	}
	return out
}

// CommentEvent describes a newly created comment.
type CommentEvent struct {
	ActorID    uuid.UUID
	UploaderID uuid.UUID
	// ParentAuthorID is set for replies.
	ParentAuthorID *uuid.UUID
	Mentions       []uuid.UUID
	// OptedIn are project members subscribed to new-comment notifications.
	OptedIn []uuid.UUID
}

// ForComment gives each user at most one notification for a new comment.
// A reply reaches the parent author as a reply, a top-level comment reaches
// subscribers and the uploader as a new comment, and mentions cover whoever is left.
func ForComment(ev CommentEvent) []Target {
	mentions := newIDSet(ev.Mentions...)
	mentions.remove(ev.ActorID)

	var out []Target
	if ev.ParentAuthorID != nil {
		parent := *ev.ParentAuthorID
		mentions.remove(parent)
		if parent != ev.ActorID {
			out = append(out, newIDSet(parent).targets(KindCommentReply)...)
		}
	} else {
		fresh := newIDSet(ev.OptedIn...)
		fresh.add(ev.UploaderID)
		fresh.remove(ev.ActorID)
		for _, id := range fresh.order {
			mentions.remove(id)
		}
		out = append(out, fresh.targets(KindCommentNew)...)
	}
	return append(out, mentions.targets(KindCommentMention)...)
}

// ForApproval always includes the uploader, regardless of opt-in.
func ForApproval(actorID, uploaderID uuid.UUID, optedIn []uuid.UUID) []Target {
	s := newIDSet(uploaderID)
	for _, id := range optedIn {
		s.add(id)
	}
	s.remove(actorID)
	return s.targets(KindAssetApproved)
}

func ForRevision(actorID, uploaderID uuid.UUID) []Target {
	s := newIDSet(uploaderID)
	s.remove(actorID)
	return s.targets(KindRevisionRequested)
}

func ForVersionUpload(actorID uuid.UUID, optedIn []uuid.UUID, requestCreator *uuid.UUID) []Target {
	s := newIDSet(optedIn...)
	if requestCreator != nil {
		s.add(*requestCreator)
	}
	s.remove(actorID)
	return s.targets(KindVersionUploaded)
}

func ForAssignment(assignerID, assigneeID uuid.UUID) []Target {
	if assigneeID == uuid.Nil || assignerID == assigneeID {
		return nil
	}
	return []Target{{UserID: assigneeID, Kind: KindRequestAssigned}}
}

func ForStatusChange(actorID uuid.UUID, assigneeID *uuid.UUID, creatorID uuid.UUID) []Target {
	s := newIDSet()
	if assigneeID != nil {
		s.add(*assigneeID)
	}
	s.add(creatorID)
	s.remove(actorID)
	return s.targets(KindRequestStatusChanged)
}

// Subscribers returns members for which pick is true, in input order.
func Subscribers(members []review.ProjectMember, pick func(review.ProjectMember) bool) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		if pick(m) {
			out = append(out, m.UserID)
		}
	}
	return out
}

func WantsComments(m review.ProjectMember) bool  { return m.NotifyComments }
func WantsApprovals(m review.ProjectMember) bool { return m.NotifyApprovals }
func WantsUploads(m review.ProjectMember) bool   { return m.NotifyUploads }

// ByKind groups targets per kind, preserving first-seen kind order.
func ByKind(targets []Target) ([]Kind, map[Kind][]uuid.UUID) {
	var kinds []Kind
	groups := map[Kind][]uuid.UUID{}
	for _, t := range targets {
		if _, ok := groups[t.Kind]; !ok {
			kinds = append(kinds, t.Kind)
		}
		groups[t.Kind] = append(groups[t.Kind], t.UserID)
	}
	return kinds, groups
}
