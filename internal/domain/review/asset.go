package review

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Asset struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"project_id"`
	UploaderID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"uploader_id"`
	RequestID      *uuid.UUID  `gorm:"type:uuid;index" json:"request_id,omitempty"`
	Title          string      `gorm:"column:title;not null" json:"title"`
	Type           AssetType   `gorm:"column:type;not null" json:"type"`
	Status         AssetStatus `gorm:"column:status;not null;index" json:"status"`
	CurrentVersion int         `gorm:"column:current_version;not null" json:"current_version"`
	Locked         bool        `gorm:"column:locked;not null" json:"locked"`
	Deadline       *time.Time  `gorm:"column:deadline" json:"deadline,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Asset) TableName() string { return "asset" }

func (a *Asset) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type AssetVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_asset_version_number,priority:1" json:"asset_id"`
	VersionNumber int       `gorm:"column:version_number;not null;uniqueIndex:idx_asset_version_number,priority:2" json:"version_number"`
	FilePath      string    `gorm:"column:file_path;not null" json:"file_path"`
	FileSize      int64     `gorm:"column:file_size;not null" json:"file_size"`
	MimeType      string    `gorm:"column:mime_type" json:"mime_type"`
	UploaderID    uuid.UUID `gorm:"type:uuid;not null" json:"uploader_id"`
	Notes         string    `gorm:"column:notes" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AssetVersion) TableName() string { return "asset_version" }

func (v *AssetVersion) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
