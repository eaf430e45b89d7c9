package review

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalLog is append-only.
type ApprovalLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"asset_id"`
	AssetVersion int            `gorm:"column:asset_version;not null;index" json:"asset_version"`
	ActorID      uuid.UUID      `gorm:"type:uuid;not null" json:"actor_id"`
	Action       ApprovalAction `gorm:"column:action;not null" json:"action"`
	Comment      *string        `gorm:"column:comment" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ApprovalLog) TableName() string { return "approval_log" }

func (l *ApprovalLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
