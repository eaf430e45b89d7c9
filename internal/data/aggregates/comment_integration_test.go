package aggregates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

func (f *reviewFixture) seedMembers(t *testing.T) {
	t.Helper()
	rows := []*review.ProjectMember{
		{ProjectID: f.project, UserID: f.pm.UserID, Role: string(review.RolePM), NotifyComments: true},
		{ProjectID: f.project, UserID: f.creative.UserID, Role: string(review.RoleCreative), NotifyComments: true},
		{ProjectID: f.project, UserID: f.reviewer.UserID, Role: string(review.RoleReviewer), NotifyComments: true},
	}
	if err := f.memberRepo.Upsert(f.dbc(), rows); err != nil {
		t.Fatalf("seed members: %v", err)
	}
}

func TestCommentAggregateAnnotations(t *testing.T) {
	f := newReviewFixture(t, nil)
	image := f.createAsset(t, review.AssetTypeImage, nil).Asset
	design := f.createAsset(t, review.AssetTypeDesign, nil).Asset
	video := f.createAsset(t, review.AssetTypeVideo, nil).Asset

	cases := []struct {
		name    string
		assetID uuid.UUID
		anchor  review.Anchor
		want    domainagg.ErrorCode
	}{
		{"partial rect", image.ID, review.Anchor{Region: review.RegionInput{X: f64(0.1), Y: f64(0.1)}}, domainagg.CodeValidation},
		{"rect out of range", image.ID, review.Anchor{Region: review.RegionInput{X: f64(0.1), Y: f64(0.1), Width: f64(1.5), Height: f64(0.2)}}, domainagg.CodeValidation},
		{"rect on design", design.ID, review.Anchor{Region: review.RegionInput{X: f64(0), Y: f64(0), Width: f64(0.5), Height: f64(0.5)}}, domainagg.CodeValidation},
		{"timestamp on image", image.ID, review.Anchor{Timestamp: f64(3)}, domainagg.CodeValidation},
		{"negative timestamp", video.ID, review.Anchor{Timestamp: f64(-1)}, domainagg.CodeValidation},
		{"page on video", video.ID, review.Anchor{Page: intp(2)}, domainagg.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{
				Actor:   f.pm,
				AssetID: tc.assetID,
				Content: "note",
				Anchor:  tc.anchor,
			})
			requireCode(t, err, tc.want)
		})
	}

	res, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{
		Actor:   f.pm,
		AssetID: video.ID,
		Content: "<p>flash at <b>0:03</b></p>",
		Anchor: review.Anchor{
			Region:    review.RegionInput{X: f64(0.25), Y: f64(0.5), Width: f64(0.1), Height: f64(0.1)},
			Timestamp: f64(3.5),
		},
	})
	if err != nil {
		t.Fatalf("CreateComment video: %v", err)
	}
	c := res.Comment
	if c.Content != "flash at 0:03" {
		t.Fatalf("sanitized content: want=%q got=%q", "flash at 0:03", c.Content)
	}
	if !c.HasRegion() || *c.RectX != 0.25 || c.VideoTimestamp == nil || *c.VideoTimestamp != 3.5 {
		t.Fatalf("anchor not stored: %+v", c)
	}
	if c.AssetVersion != 1 {
		t.Fatalf("default version: want=1 got=%d", c.AssetVersion)
	}

	_, err = f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: image.ID, Content: strings.Repeat("a", MaxContentRunes+1)})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestCommentAggregateThreadingAndVersions(t *testing.T) {
	f := newReviewFixture(t, nil)
	asset := f.createAsset(t, review.AssetTypeImage, nil).Asset
	other := f.createAsset(t, review.AssetTypeImage, nil).Asset

	top, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, Content: "top"})
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if _, err := f.assets.UploadVersion(f.ctx, domainagg.UploadVersionInput{
		Actor:   f.creative,
		AssetID: asset.ID,
		File:    domainagg.VersionFile{FilePath: "assets/v2.png"},
	}); err != nil {
		t.Fatalf("UploadVersion: %v", err)
	}

	reply, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.creative, AssetID: asset.ID, ParentID: &top.Comment.ID, Content: "done"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Comment.AssetVersion != 1 {
		t.Fatalf("reply version follows parent: want=1 got=%d", reply.Comment.AssetVersion)
	}
	if reply.Parent == nil || reply.Parent.ID != top.Comment.ID {
		t.Fatalf("reply parent: got=%+v", reply.Parent)
	}

	_, err = f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, ParentID: &reply.Comment.ID, Content: "nested"})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: other.ID, ParentID: &top.Comment.ID, Content: "wrong asset"})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, AssetVersion: intp(3), Content: "future"})
	requireCode(t, err, domainagg.CodeNotFound)

	v2, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, Content: "v2 looks good"})
	if err != nil || v2.Comment.AssetVersion != 2 {
		t.Fatalf("default current version: got=%+v err=%v", v2.Comment, err)
	}
}

func TestCommentAggregateMentionsAreFilteredByVisibility(t *testing.T) {
	f := newReviewFixture(t, nil)
	f.seedMembers(t)
	asset := f.createAsset(t, review.AssetTypeImage, nil).Asset
	stranger := uuid.New()

	content := fmt.Sprintf("@[Cam](%s) @[Rae](%s) @[Me](%s) please check", f.creative.UserID, f.reviewer.UserID, f.pm.UserID)
	res, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{
		Actor:      f.pm,
		AssetID:    asset.ID,
		Content:    content,
		MentionIDs: []uuid.UUID{stranger, f.creative.UserID},
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if len(res.Mentions) != 1 || res.Mentions[0] != f.creative.UserID {
		t.Fatalf("mentions: want=[%s] got=%v", f.creative.UserID, res.Mentions)
	}
	if ids := res.Comment.MentionIDs(); len(ids) != 1 || ids[0] != f.creative.UserID {
		t.Fatalf("stored mentions: got=%v", ids)
	}
	if len(res.ProjectMembers) != 3 {
		t.Fatalf("project members snapshot: want=3 got=%d", len(res.ProjectMembers))
	}

	if _, err := f.assets.RecordView(f.ctx, domainagg.RecordViewInput{Actor: f.pm, AssetID: asset.ID}); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if _, err := f.assets.SendToClient(f.ctx, domainagg.TransitionInput{Actor: f.pm, AssetID: asset.ID}); err != nil {
		t.Fatalf("SendToClient: %v", err)
	}
	res, err = f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, Content: content})
	if err != nil {
		t.Fatalf("CreateComment client review: %v", err)
	}
	if len(res.Mentions) != 2 {
		t.Fatalf("mentions in client review: want=2 got=%v", res.Mentions)
	}
}

func TestCommentAggregateMentionsResolveThroughMemberRows(t *testing.T) {
	f := newReviewFixture(t, nil)
	f.seedMembers(t)
	asset := f.createAsset(t, review.AssetTypeImage, nil).Asset
	memberAdmin := uuid.New()
	if err := f.memberRepo.Upsert(f.dbc(), []*review.ProjectMember{
		{ProjectID: f.project, UserID: memberAdmin, Role: string(review.RoleAdmin)},
	}); err != nil {
		t.Fatalf("seed admin member: %v", err)
	}

	res, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{
		Actor:      f.pm,
		AssetID:    asset.ID,
		Content:    "admins, take a look",
		MentionIDs: []uuid.UUID{f.admin.UserID, memberAdmin},
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if len(res.Mentions) != 1 || res.Mentions[0] != memberAdmin {
		t.Fatalf("mentions: want=[%s] got=%v", memberAdmin, res.Mentions)
	}
}

func TestCommentAggregateResolve(t *testing.T) {
	f := newReviewFixture(t, nil)
	asset := f.createAsset(t, review.AssetTypeImage, nil).Asset
	top, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, Content: "top"})
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	reply, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, ParentID: &top.Comment.ID, Content: "reply"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	_, err = f.comments.SetResolved(f.ctx, domainagg.ResolveCommentInput{Actor: f.creative, CommentID: reply.Comment.ID, Resolved: true})
	requireCode(t, err, domainagg.CodePreconditionFailed)

	otherCreative := review.Actor{UserID: uuid.New(), Role: review.RoleCreative, ProjectIDs: []uuid.UUID{f.project}}
	_, err = f.comments.SetResolved(f.ctx, domainagg.ResolveCommentInput{Actor: otherCreative, CommentID: top.Comment.ID, Resolved: true})
	requireCode(t, err, domainagg.CodeForbidden)

	res, err := f.comments.SetResolved(f.ctx, domainagg.ResolveCommentInput{Actor: f.creative, CommentID: top.Comment.ID, Resolved: true})
	if err != nil || !res.Changed || !res.Comment.Resolved {
		t.Fatalf("resolve: got=%+v err=%v", res, err)
	}
	stored, _ := f.commentRepo.GetByID(f.dbc(), top.Comment.ID)
	if stored.ResolvedBy == nil || *stored.ResolvedBy != f.creative.UserID || stored.ResolvedAt == nil {
		t.Fatalf("resolved_by: got=%+v", stored)
	}

	res, err = f.comments.SetResolved(f.ctx, domainagg.ResolveCommentInput{Actor: f.pm, CommentID: top.Comment.ID, Resolved: false})
	if err != nil || !res.Changed || res.Comment.Resolved || res.Comment.ResolvedBy != nil {
		t.Fatalf("unresolve: got=%+v err=%v", res, err)
	}
	stored, _ = f.commentRepo.GetByID(f.dbc(), top.Comment.ID)
	if stored.Resolved || stored.ResolvedBy != nil || stored.ResolvedAt != nil {
		t.Fatalf("unresolve stored: got=%+v", stored)
	}

	res, err = f.comments.SetResolved(f.ctx, domainagg.ResolveCommentInput{Actor: f.pm, CommentID: top.Comment.ID, Resolved: false})
	if err != nil || res.Changed {
		t.Fatalf("unresolve twice: want no-op got=%+v err=%v", res, err)
	}
}

func TestCommentAggregateDeleteRemovesReplies(t *testing.T) {
	f := newReviewFixture(t, nil)
	asset := f.createAsset(t, review.AssetTypeImage, nil).Asset
	top, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{
		Actor:       f.creative,
		AssetID:     asset.ID,
		Content:     "top",
		Attachments: []domainagg.Attachment{{TempID: "t1", Path: "comments/ref.jpg"}},
	})
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	reply, err := f.comments.CreateComment(f.ctx, domainagg.CreateCommentInput{Actor: f.pm, AssetID: asset.ID, ParentID: &top.Comment.ID, Content: "reply"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	_, err = f.comments.DeleteComment(f.ctx, domainagg.DeleteCommentInput{Actor: f.creative, CommentID: reply.Comment.ID})
	requireCode(t, err, domainagg.CodeForbidden)

	res, err := f.comments.DeleteComment(f.ctx, domainagg.DeleteCommentInput{Actor: f.creative, CommentID: top.Comment.ID})
	if err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(res.CommentIDs) != 2 || len(res.AttachmentPaths) != 1 || res.AttachmentPaths[0] != "comments/ref.jpg" {
		t.Fatalf("delete result: got=%+v", res)
	}
	rows, err := f.commentRepo.ListByAsset(f.dbc(), asset.ID, nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("comments left: len=%d err=%v", len(rows), err)
	}
}
