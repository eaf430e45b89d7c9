package services

import (
	"testing"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/timeline"
)

func countKinds(entries []timeline.Entry) map[timeline.EntryKind]int {
	out := map[timeline.EntryKind]int{}
	for _, e := range entries {
		out[e.Kind]++
	}
	return out
}

func TestTimelineServiceFilters(t *testing.T) {
	f := newServiceFixture(t)
	asset := inReviewAsset(t, f)

	if _, err := f.comments.Create(f.as(f.pm), CreateCommentRequest{AssetID: asset.ID, Content: "v1 note"}); err != nil {
		t.Fatalf("comment v1: %v", err)
	}
	if _, err := f.assets.RequestRevision(f.as(f.pm), asset.ID, "tighten margins"); err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	if _, err := f.assets.UploadVersion(f.as(f.creative), asset.ID, f.upload("hero-v2.png")); err != nil {
		t.Fatalf("UploadVersion: %v", err)
	}
	if _, err := f.comments.Create(f.as(f.pm), CreateCommentRequest{AssetID: asset.ID, Content: "v2 note"}); err != nil {
		t.Fatalf("comment v2: %v", err)
	}

	res, err := f.timeline.Get(f.as(f.pm), timeline.Query{AssetID: asset.ID})
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	kinds := countKinds(res.Entries)
	if kinds[timeline.KindVersion] != 2 || kinds[timeline.KindComment] != 1 || kinds[timeline.KindApproval] != 0 {
		t.Fatalf("default kinds: got=%v", kinds)
	}
	if res.Filters.Comments == nil || *res.Filters.Comments != 2 || res.Filters.Versions != nil {
		t.Fatalf("default filters: got=%+v", res.Filters)
	}
	for i := 1; i < len(res.Entries); i++ {
		if res.Entries[i].At.Before(res.Entries[i-1].At) {
			t.Fatalf("entries out of order at %d", i)
		}
	}

	v1 := 1
	res, err = f.timeline.Get(f.as(f.pm), timeline.Query{AssetID: asset.ID, Version: &v1})
	if err != nil {
		t.Fatalf("version=1: %v", err)
	}
	kinds = countKinds(res.Entries)
	if kinds[timeline.KindVersion] != 1 || kinds[timeline.KindComment] != 1 || kinds[timeline.KindApproval] != 1 {
		t.Fatalf("version=1 kinds: got=%v", kinds)
	}

	res, err = f.timeline.Get(f.as(f.pm), timeline.Query{AssetID: asset.ID, All: true})
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if got := len(res.Entries); got != 5 {
		t.Fatalf("all entries: want=5 got=%d", got)
	}

	v5 := 5
	_, err = f.timeline.Get(f.as(f.pm), timeline.Query{AssetID: asset.ID, Version: &v5})
	requireCode(t, err, domainagg.CodeNotFound)
	v0 := 0
	_, err = f.timeline.Get(f.as(f.pm), timeline.Query{AssetID: asset.ID, Version: &v0})
	requireCode(t, err, domainagg.CodeValidation)

	_, err = f.timeline.Get(f.as(f.reviewer), timeline.Query{AssetID: asset.ID})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestProjectServiceUpsertMember(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.projects.UpsertMember(f.as(f.pm), f.project, f.creative.UserID, MemberSettings{Role: "wizard"})
	requireCode(t, err, domainagg.CodeValidation)

	m, err := f.projects.UpsertMember(f.as(f.pm), f.project, f.creative.UserID, MemberSettings{Role: review.RoleCreative, NotifyUploads: true})
	if err != nil {
		t.Fatalf("UpsertMember pm: %v", err)
	}
	if m.Role != string(review.RoleCreative) || !m.NotifyUploads || m.NotifyComments {
		t.Fatalf("member: got=%+v", m)
	}

	// Self-service keeps the stored role.
	m, err = f.projects.UpsertMember(f.as(f.creative), f.project, f.creative.UserID, MemberSettings{Role: review.RoleAdmin, NotifyComments: true})
	if err != nil {
		t.Fatalf("UpsertMember self: %v", err)
	}
	if m.Role != string(review.RoleCreative) || !m.NotifyComments || m.NotifyUploads {
		t.Fatalf("self update: got=%+v", m)
	}

	_, err = f.projects.UpsertMember(f.as(f.creative), f.project, f.creative2.UserID, MemberSettings{Role: review.RoleCreative})
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = f.projects.UpsertMember(f.as(f.reviewer), f.project, f.reviewer.UserID, MemberSettings{Role: review.RoleReviewer})
	requireCode(t, err, domainagg.CodeNotFound)

	rows, err := f.projects.ListMembers(f.as(f.reviewer), f.project)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListMembers: want=1 got=%d err=%v", len(rows), err)
	}
}
