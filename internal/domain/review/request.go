package review

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request is a unit of requested creative work that assets can be delivered against.
type Request struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"project_id"`
	Title      string        `gorm:"column:title;not null" json:"title"`
	Status     RequestStatus `gorm:"column:status;not null;index" json:"status"`
	CreatorID  uuid.UUID     `gorm:"type:uuid;not null" json:"creator_id"`
	AssigneeID *uuid.UUID    `gorm:"type:uuid;index" json:"assignee_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Request) TableName() string { return "request" }

func (r *Request) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RequestPending
	}
	return nil
}

// ProjectMember carries membership and notification opt-ins for one user in one project.
type ProjectMember struct {
	ProjectID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role            string    `gorm:"column:role;not null" json:"role"`
	NotifyComments  bool      `gorm:"column:notify_comments;not null" json:"notify_comments"`
	NotifyApprovals bool      `gorm:"column:notify_approvals;not null" json:"notify_approvals"`
	NotifyUploads   bool      `gorm:"column:notify_uploads;not null" json:"notify_uploads"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProjectMember) TableName() string { return "project_member" }
