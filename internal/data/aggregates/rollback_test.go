package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/data/aggregates"
	aggtest "github.com/monaam/reviewflow-sub000/internal/data/aggregates/testutil"
	"github.com/monaam/reviewflow-sub000/internal/data/repos"
	repotest "github.com/monaam/reviewflow-sub000/internal/data/repos/testutil"
	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/platform/dbctx"
)

func TestUploadVersionIsAllOrNothing(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ctx := context.Background()

	runner := &aggtest.FaultyTxRunner{DB: db}
	hooks := &aggtest.Recorder{}
	assetRepo := repos.NewAssetRepo(db, log)
	versionRepo := repos.NewAssetVersionRepo(db, log)
	agg := aggregates.NewAssetAggregate(aggregates.AssetAggregateDeps{
		Base:      aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: hooks},
		Assets:    assetRepo,
		Versions:  versionRepo,
		Comments:  repos.NewCommentRepo(db, log),
		Approvals: repos.NewApprovalLogRepo(db, log),
		Requests:  repos.NewRequestRepo(db, log),
	})

	project := uuid.New()
	creative := review.Actor{UserID: uuid.New(), Role: review.RoleCreative, ProjectIDs: []uuid.UUID{project}}
	created, err := agg.CreateAsset(ctx, domainagg.CreateAssetInput{
		Actor:     creative,
		ProjectID: project,
		Title:     "Poster",
		Type:      review.AssetTypePDF,
		File:      domainagg.VersionFile{FilePath: "assets/poster-v1.pdf", MimeType: "application/pdf"},
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	runner.AbortAfterBody = errors.New("commit lost")
	_, err = agg.UploadVersion(ctx, domainagg.UploadVersionInput{
		Actor:   creative,
		AssetID: created.Asset.ID,
		File:    domainagg.VersionFile{FilePath: "assets/poster-v2.pdf"},
	})
	if err == nil {
		t.Fatalf("expected injected commit failure")
	}
	if runner.RolledBack != 1 || runner.Committed != 1 {
		t.Fatalf("runner counters: committed=%d rolled_back=%d", runner.Committed, runner.RolledBack)
	}

	dbc := dbctx.New(ctx)
	asset, err := assetRepo.GetByID(dbc, created.Asset.ID)
	if err != nil || asset == nil {
		t.Fatalf("GetByID: got=%v err=%v", asset, err)
	}
	if asset.CurrentVersion != 1 || asset.Status != review.StatusPendingReview {
		t.Fatalf("partial upload applied: version=%d status=%s", asset.CurrentVersion, asset.Status)
	}
	versions, err := versionRepo.ListByAsset(dbc, created.Asset.ID, nil)
	if err != nil || len(versions) != 1 {
		t.Fatalf("versions after rollback: want=1 got=%d err=%v", len(versions), err)
	}

	if got := hooks.Outcomes(); len(got) != 2 || got[1] != string(domainagg.CodeInternal) {
		t.Fatalf("hook outcomes: got=%v", got)
	}

	runner.AbortAfterBody = nil
	runner.Replays = 1
	res, err := agg.UploadVersion(ctx, domainagg.UploadVersionInput{
		Actor:   creative,
		AssetID: created.Asset.ID,
		File:    domainagg.VersionFile{FilePath: "assets/poster-v2.pdf"},
	})
	if err != nil {
		t.Fatalf("UploadVersion after replay: %v", err)
	}
	if res.Version.VersionNumber != 2 {
		t.Fatalf("replayed upload version: want=2 got=%d", res.Version.VersionNumber)
	}
	versions, err = versionRepo.ListByAsset(dbc, created.Asset.ID, nil)
	if err != nil || len(versions) != 2 {
		t.Fatalf("versions after replay: want=2 got=%d err=%v", len(versions), err)
	}
	if got := hooks.Retries("Review.Asset.UploadVersion"); got != 1 {
		t.Fatalf("replay retries: want=1 got=%d", got)
	}
}
