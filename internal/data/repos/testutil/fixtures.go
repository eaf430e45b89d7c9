package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, uploaderID uuid.UUID, status review.AssetStatus) *types.Asset {
	tb.Helper()
	a := &types.Asset{
		ID:             uuid.New(),
		ProjectID:      projectID,
		UploaderID:     uploaderID,
		Title:          "asset",
		Type:           review.AssetTypeImage,
		Status:         status,
		CurrentVersion: 1,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	SeedVersion(tb, ctx, tx, a.ID, 1, uploaderID)
	return a
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID uuid.UUID, number int, uploaderID uuid.UUID) *types.AssetVersion {
	tb.Helper()
	v := &types.AssetVersion{
		ID:            uuid.New(),
		AssetID:       assetID,
		VersionNumber: number,
		FilePath:      "assets/" + assetID.String() + "/v",
		FileSize:      1024,
		MimeType:      "image/png",
		UploaderID:    uploaderID,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return v
}

func SeedComment(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID, authorID uuid.UUID, version int, parentID *uuid.UUID) *types.Comment {
	tb.Helper()
	c := &types.Comment{
		ID:           uuid.New(),
		AssetID:      assetID,
		AssetVersion: version,
		AuthorID:     authorID,
		ParentID:     parentID,
		Content:      "comment",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return c
}

func SeedRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, creatorID uuid.UUID, status review.RequestStatus) *types.Request {
	tb.Helper()
	r := &types.Request{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     "request",
		Status:    status,
		CreatorID: creatorID,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed request: %v", err)
	}
	return r
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, role string, notify bool) *types.ProjectMember {
	tb.Helper()
	m := &types.ProjectMember{
		ProjectID:       projectID,
		UserID:          userID,
		Role:            role,
		NotifyComments:  notify,
		NotifyApprovals: notify,
		NotifyUploads:   notify,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrInt(v int) *int { return &v }
