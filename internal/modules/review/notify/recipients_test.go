package notify

import (
	"testing"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

func kindsByUser(targets []Target) map[uuid.UUID][]Kind {
	out := map[uuid.UUID][]Kind{}
	for _, t := range targets {
		out[t.UserID] = append(out[t.UserID], t.Kind)
	}
	return out
}

func assertSingleKind(t *testing.T, got map[uuid.UUID][]Kind, user uuid.UUID, want Kind) {
	t.Helper()
	kinds := got[user]
	if len(kinds) != 1 || kinds[0] != want {
		t.Fatalf("user %s: want=[%s] got=%v", user, want, kinds)
	}
}

func TestForCommentTopLevel(t *testing.T) {
	actor, uploader, subscriber, mentioned := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	targets := ForComment(CommentEvent{
		ActorID:    actor,
		UploaderID: uploader,
		// uploader and subscriber are both mentioned and would otherwise get two notifications
		Mentions: []uuid.UUID{uploader, subscriber, mentioned, actor},
		OptedIn:  []uuid.UUID{subscriber, actor},
	})
	got := kindsByUser(targets)

	if len(got) != 3 {
		t.Fatalf("recipients: want=3 got=%d (%v)", len(got), got)
	}
	assertSingleKind(t, got, uploader, KindCommentNew)
	assertSingleKind(t, got, subscriber, KindCommentNew)
	assertSingleKind(t, got, mentioned, KindCommentMention)
	if _, ok := got[actor]; ok {
		t.Fatalf("actor must not be notified")
	}
}

func TestForCommentReply(t *testing.T) {
	actor, uploader, parentAuthor, mentioned, subscriber := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	targets := ForComment(CommentEvent{
		ActorID:        actor,
		UploaderID:     uploader,
		ParentAuthorID: &parentAuthor,
		Mentions:       []uuid.UUID{parentAuthor, mentioned},
		OptedIn:        []uuid.UUID{subscriber},
	})
	got := kindsByUser(targets)

	if len(got) != 2 {
		t.Fatalf("recipients: want=2 got=%d (%v)", len(got), got)
	}
	assertSingleKind(t, got, parentAuthor, KindCommentReply)
	assertSingleKind(t, got, mentioned, KindCommentMention)
}

func TestForCommentSelfReply(t *testing.T) {
	actor := uuid.New()
	targets := ForComment(CommentEvent{ActorID: actor, UploaderID: uuid.New(), ParentAuthorID: &actor})
	if len(targets) != 0 {
		t.Fatalf("self reply: want no targets got=%v", targets)
	}
}

func TestForApproval(t *testing.T) {
	actor, uploader, optedIn := uuid.New(), uuid.New(), uuid.New()

	got := kindsByUser(ForApproval(actor, uploader, []uuid.UUID{optedIn, uploader}))
	if len(got) != 2 {
		t.Fatalf("approval recipients: want=2 got=%v", got)
	}
	assertSingleKind(t, got, uploader, KindAssetApproved)
	assertSingleKind(t, got, optedIn, KindAssetApproved)

	if got := ForApproval(uploader, uploader, nil); len(got) != 0 {
		t.Fatalf("uploader approving own asset: want none got=%v", got)
	}
}

func TestForRevision(t *testing.T) {
	actor, uploader := uuid.New(), uuid.New()
	got := ForRevision(actor, uploader)
	if len(got) != 1 || got[0].UserID != uploader || got[0].Kind != KindRevisionRequested {
		t.Fatalf("revision targets: got=%v", got)
	}
}

func TestForAssignment(t *testing.T) {
	assigner, assignee := uuid.New(), uuid.New()
	if got := ForAssignment(assigner, assignee); len(got) != 1 || got[0].UserID != assignee {
		t.Fatalf("assignment targets: got=%v", got)
	}
	if got := ForAssignment(assignee, assignee); len(got) != 0 {
		t.Fatalf("self assignment: want none got=%v", got)
	}
}

func TestForStatusChange(t *testing.T) {
	actor, creator := uuid.New(), uuid.New()

	// assignee == creator collapses to one notification
	got := ForStatusChange(actor, &creator, creator)
	if len(got) != 1 || got[0].UserID != creator {
		t.Fatalf("dedup: got=%v", got)
	}
	if got := ForStatusChange(creator, nil, creator); len(got) != 0 {
		t.Fatalf("creator changing own request: want none got=%v", got)
	}
}

func TestForVersionUpload(t *testing.T) {
	actor, subscriber, creator := uuid.New(), uuid.New(), uuid.New()
	got := kindsByUser(ForVersionUpload(actor, []uuid.UUID{subscriber, actor}, &creator))
	if len(got) != 2 {
		t.Fatalf("upload recipients: want=2 got=%v", got)
	}
	assertSingleKind(t, got, creator, KindVersionUploaded)
}

func TestSubscribers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	members := []review.ProjectMember{
		{UserID: a, NotifyComments: true},
		{UserID: b, NotifyApprovals: true},
	}
	if got := Subscribers(members, WantsComments); len(got) != 1 || got[0] != a {
		t.Fatalf("comment subscribers: got=%v", got)
	}
	if got := Subscribers(members, WantsUploads); len(got) != 0 {
		t.Fatalf("upload subscribers: got=%v", got)
	}
}
