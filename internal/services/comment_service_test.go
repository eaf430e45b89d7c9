package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
)

// inReviewAsset creates an asset as the creative and opens it as the pm.
func inReviewAsset(t *testing.T, f *serviceFixture) review.Asset {
	t.Helper()
	created := f.createAsset(t, nil)
	a, err := f.assets.Get(f.as(f.pm), created.Asset.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	f.notifier.reset()
	return *a
}

func TestCommentServiceNotifiesEachUserOnce(t *testing.T) {
	f := newServiceFixture(t)
	f.member(t, f.pm, true, false, false)
	f.member(t, f.creative, false, false, false)
	f.member(t, f.creative2, false, false, false)
	f.member(t, f.reviewer, true, false, false)
	asset := inReviewAsset(t, f)

	top, err := f.comments.Create(f.as(f.creative2), CreateCommentRequest{
		AssetID:    asset.ID,
		Content:    "Logo feels cramped",
		MentionIDs: []uuid.UUID{f.pm.UserID, f.creative.UserID, f.reviewer.UserID},
	})
	if err != nil {
		t.Fatalf("Create top-level: %v", err)
	}
	if top.Comment.AssetVersion != 1 {
		t.Fatalf("comment version: want=1 got=%d", top.Comment.AssetVersion)
	}
	// The reviewer cannot see an in-review asset, so neither the opt-in nor the mention reaches them.
	if got := f.notifier.recipients(notify.KindCommentNew); !sameIDs(got, f.pm.UserID, f.creative.UserID) {
		t.Fatalf("new comment recipients: want=[pm creative] got=%v", got)
	}
	if got := f.notifier.recipients(notify.KindCommentMention); len(got) != 0 {
		t.Fatalf("mention recipients: want none got=%v", got)
	}
	if got := f.notifier.total(); got != 2 {
		t.Fatalf("total: want=2 got=%d", got)
	}

	f.notifier.reset()
	parentID := top.Comment.ID
	reply, err := f.comments.Create(f.as(f.pm), CreateCommentRequest{
		AssetID:    asset.ID,
		ParentID:   &parentID,
		Content:    "Agreed, see @[Casey](" + f.creative.UserID.String() + ")",
		MentionIDs: []uuid.UUID{f.creative2.UserID},
	})
	if err != nil {
		t.Fatalf("Create reply: %v", err)
	}
	if reply.Comment.ParentID == nil || *reply.Comment.ParentID != parentID {
		t.Fatalf("reply parent: want=%s got=%v", parentID, reply.Comment.ParentID)
	}
	if got := f.notifier.recipients(notify.KindCommentReply); !sameIDs(got, f.creative2.UserID) {
		t.Fatalf("reply recipients: want=[creative2] got=%v", got)
	}
	if got := f.notifier.recipients(notify.KindCommentMention); !sameIDs(got, f.creative.UserID) {
		t.Fatalf("mention recipients: want=[creative] got=%v", got)
	}
	if got := f.notifier.total(); got != 2 {
		t.Fatalf("total: want=2 got=%d", got)
	}

	replyID := reply.Comment.ID
	_, err = f.comments.Create(f.as(f.creative), CreateCommentRequest{AssetID: asset.ID, ParentID: &replyID, Content: "nested"})
	requireCode(t, err, domainagg.CodeValidation)

	v := 3
	_, err = f.comments.Create(f.as(f.creative), CreateCommentRequest{AssetID: asset.ID, AssetVersion: &v, Content: "future"})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = f.comments.Create(f.as(f.creative), CreateCommentRequest{AssetID: asset.ID, Content: "   "})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = f.comments.Create(f.as(f.reviewer), CreateCommentRequest{AssetID: asset.ID, Content: "hidden"})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestCommentServiceReplySkipsAuthorWhoLostVisibility(t *testing.T) {
	f := newServiceFixture(t)
	f.member(t, f.pm, false, false, false)
	f.member(t, f.creative, false, false, false)
	f.member(t, f.reviewer, false, false, false)
	asset := inReviewAsset(t, f)
	if _, err := f.assets.SendToClient(f.as(f.pm), asset.ID); err != nil {
		t.Fatalf("SendToClient: %v", err)
	}
	top, err := f.comments.Create(f.as(f.reviewer), CreateCommentRequest{AssetID: asset.ID, Content: "Swap the logo"})
	if err != nil {
		t.Fatalf("reviewer comment: %v", err)
	}
	if _, err := f.assets.RequestRevision(f.as(f.reviewer), asset.ID, "Swap the logo"); err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	if _, err := f.assets.UploadVersion(f.as(f.creative), asset.ID, f.upload("hero-v2.png")); err != nil {
		t.Fatalf("UploadVersion: %v", err)
	}

	f.notifier.reset()
	parentID := top.Comment.ID
	if _, err := f.comments.Create(f.as(f.creative), CreateCommentRequest{AssetID: asset.ID, ParentID: &parentID, Content: "Done in v2"}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got := f.notifier.recipients(notify.KindCommentReply); len(got) != 0 {
		t.Fatalf("reply recipients on pending_review asset: want none got=%v", got)
	}
}

func TestCommentServiceStagedMedia(t *testing.T) {
	f := newServiceFixture(t)
	asset := inReviewAsset(t, f)

	own, err := f.comments.StageMedia(f.as(f.creative), FileUpload{Name: "crop.png", Reader: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("StageMedia own: %v", err)
	}
	if own.MimeType != "image/png" || own.OwnerID != f.creative.UserID {
		t.Fatalf("staged media: got=%+v", own)
	}
	foreign, err := f.comments.StageMedia(f.as(f.creative2), FileUpload{Name: "other.jpg", Reader: strings.NewReader("jpg")})
	if err != nil {
		t.Fatalf("StageMedia foreign: %v", err)
	}

	_, err = f.comments.StageMedia(f.as(f.creative), FileUpload{Name: "notes.txt", Reader: strings.NewReader("txt"), MimeType: "text/plain"})
	requireCode(t, err, domainagg.CodeValidation)
	_, err = f.comments.StageMedia(context.Background(), FileUpload{Name: "anon.png", Reader: strings.NewReader("png")})
	requireCode(t, err, domainagg.CodeForbidden)

	res, err := f.comments.Create(f.as(f.creative), CreateCommentRequest{
		AssetID:        asset.ID,
		Content:        "Use this crop",
		StagedMediaIDs: []string{own.TempID, foreign.TempID, "does-not-exist", own.TempID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Comment.Attachments) != 1 || res.Comment.Attachments[0].Path != own.Path {
		t.Fatalf("attachments: want=[%s] got=%+v", own.Path, res.Comment.Attachments)
	}
	if m, _ := f.staged.Get(f.ctx, own.TempID); m != nil {
		t.Fatalf("own staged media not cleared")
	}
	if m, _ := f.staged.Get(f.ctx, foreign.TempID); m == nil {
		t.Fatalf("foreign staged media cleared")
	}

	_, err = f.comments.Delete(f.as(f.creative2), res.Comment.ID)
	requireCode(t, err, domainagg.CodeForbidden)

	del, err := f.comments.Delete(f.as(f.creative), res.Comment.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(del.AttachmentPaths) != 1 {
		t.Fatalf("attachment paths: want=1 got=%v", del.AttachmentPaths)
	}
	if f.store.Has(own.Path) {
		t.Fatalf("attachment file not removed: %s", own.Path)
	}
	if !f.store.Has(foreign.Path) {
		t.Fatalf("foreign staged file removed: %s", foreign.Path)
	}
}

func TestCommentServiceSetResolved(t *testing.T) {
	f := newServiceFixture(t)
	asset := inReviewAsset(t, f)
	c, err := f.comments.Create(f.as(f.pm), CreateCommentRequest{AssetID: asset.ID, Content: "Fix kerning"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.comments.SetResolved(f.as(f.creative2), c.Comment.ID, true)
	requireCode(t, err, domainagg.CodeForbidden)

	res, err := f.comments.SetResolved(f.as(f.creative), c.Comment.ID, true)
	if err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	if !res.Changed || !res.Comment.Resolved || res.Comment.ResolvedBy == nil || *res.Comment.ResolvedBy != f.creative.UserID {
		t.Fatalf("resolved: got=%+v", res)
	}
	res, err = f.comments.SetResolved(f.as(f.pm), c.Comment.ID, true)
	if err != nil || res.Changed {
		t.Fatalf("repeat resolve: want unchanged got changed=%v err=%v", res != nil && res.Changed, err)
	}
	res, err = f.comments.SetResolved(f.as(f.pm), c.Comment.ID, false)
	if err != nil || !res.Changed || res.Comment.Resolved || res.Comment.ResolvedBy != nil {
		t.Fatalf("unresolve: got=%+v err=%v", res, err)
	}
}
