package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/monaam/reviewflow-sub000/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureReviewIndexes adds the composite indexes the timeline and list queries read through.
func EnsureReviewIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_comment_asset_version_created", `CREATE INDEX IF NOT EXISTS idx_comment_asset_version_created ON comment(asset_id, asset_version, created_at);`},
		{"idx_approval_log_asset_version_created", `CREATE INDEX IF NOT EXISTS idx_approval_log_asset_version_created ON approval_log(asset_id, asset_version, created_at);`},
		{"idx_asset_project_status", `CREATE INDEX IF NOT EXISTS idx_asset_project_status ON asset(project_id, status, created_at);`},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureReviewIndexes(db)
}
