package review

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/repos/testutil"
	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

func TestAssetRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetRepo(db, testutil.Logger(t))

	project := uuid.New()
	uploader := uuid.New()

	a1 := &types.Asset{ProjectID: project, UploaderID: uploader, Title: "a1", Type: review.AssetTypeImage, Status: review.StatusPendingReview, CurrentVersion: 1}
	a2 := &types.Asset{ProjectID: project, UploaderID: uploader, Title: "a2", Type: review.AssetTypeVideo, Status: review.StatusClientReview, CurrentVersion: 1}
	a3 := &types.Asset{ProjectID: uuid.New(), UploaderID: uploader, Title: "a3", Type: review.AssetTypePDF, Status: review.StatusApproved, CurrentVersion: 1}

	if _, err := repo.Create(dbc, []*types.Asset{a1, a2, a3}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a1.ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}

	if got, err := repo.GetByID(dbc, a1.ID); err != nil || got == nil || got.ID != a1.ID {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID missing: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByIDs(dbc, []uuid.UUID{a1.ID, a2.ID, a3.ID}); err != nil || len(got) != 3 {
		t.Fatalf("GetByIDs: len=%d err=%v", len(got), err)
	}
	if got, err := repo.ListByProject(dbc, project, nil); err != nil || len(got) != 2 {
		t.Fatalf("ListByProject all: len=%d err=%v", len(got), err)
	}
	got, err := repo.ListByProject(dbc, project, review.ClientFacingStatuses)
	if err != nil || len(got) != 1 || got[0].ID != a2.ID {
		t.Fatalf("ListByProject client-facing: got=%v err=%v", got, err)
	}

	locked, err := repo.LockByID(dbc, a1.ID)
	if err != nil || locked == nil || locked.ID != a1.ID {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
	if missing, err := repo.LockByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("LockByID missing: got=%v err=%v", missing, err)
	}
	if _, err := repo.LockByID(dbctx.Context{Ctx: ctx}, a1.ID); err == nil {
		t.Fatalf("LockByID without tx: expected error")
	}

	if err := repo.UpdateFields(dbc, a1.ID, map[string]interface{}{"locked": true, "status": string(review.StatusInReview)}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, err := repo.GetByID(dbc, a1.ID); err != nil || got == nil || !got.Locked || got.Status != review.StatusInReview {
		t.Fatalf("UpdateFields verify: got=%v err=%v", got, err)
	}

	reqID := uuid.New()
	if err := repo.UpdateFields(dbc, a2.ID, map[string]interface{}{"request_id": reqID}); err != nil {
		t.Fatalf("UpdateFields request: %v", err)
	}
	if got, err := repo.ListByRequest(dbc, reqID); err != nil || len(got) != 1 || got[0].ID != a2.ID {
		t.Fatalf("ListByRequest: got=%v err=%v", got, err)
	}

	if err := repo.DeleteByIDs(dbc, []uuid.UUID{a3.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if got, err := repo.GetByID(dbc, a3.ID); err != nil || got != nil {
		t.Fatalf("DeleteByIDs verify: got=%v err=%v", got, err)
	}
}

func TestAssetVersionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssetVersionRepo(db, testutil.Logger(t))

	uploader := uuid.New()
	asset := testutil.SeedAsset(t, ctx, tx, uuid.New(), uploader, review.StatusPendingReview)
	if _, err := repo.Create(dbc, []*types.AssetVersion{{
		AssetID:       asset.ID,
		VersionNumber: 2,
		FilePath:      "assets/v2.png",
		FileSize:      2048,
		MimeType:      "image/png",
		UploaderID:    uploader,
	}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got, err := repo.ListByAsset(dbc, asset.ID, nil); err != nil || len(got) != 2 {
		t.Fatalf("ListByAsset: len=%d err=%v", len(got), err)
	}
	got, err := repo.ListByAsset(dbc, asset.ID, testutil.PtrInt(2))
	if err != nil || len(got) != 1 || got[0].VersionNumber != 2 {
		t.Fatalf("ListByAsset v2: got=%v err=%v", got, err)
	}
	if v, err := repo.GetByAssetAndNumber(dbc, asset.ID, 2); err != nil || v == nil || v.FilePath != "assets/v2.png" {
		t.Fatalf("GetByAssetAndNumber: got=%v err=%v", v, err)
	}
	if v, err := repo.GetByAssetAndNumber(dbc, asset.ID, 9); err != nil || v != nil {
		t.Fatalf("GetByAssetAndNumber missing: got=%v err=%v", v, err)
	}

	if _, err := repo.Create(dbc, []*types.AssetVersion{{
		AssetID:       asset.ID,
		VersionNumber: 2,
		FilePath:      "dup",
		MimeType:      "image/png",
		UploaderID:    uploader,
	}}); err == nil {
		t.Fatalf("Create duplicate number: expected unique violation")
	}
}
