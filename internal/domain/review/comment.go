package review

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Comment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"asset_id"`
	AssetVersion int        `gorm:"column:asset_version;not null;index" json:"asset_version"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Content      string     `gorm:"column:content;not null" json:"content"`

	RectX      *float64 `gorm:"column:rect_x" json:"rect_x,omitempty"`
	RectY      *float64 `gorm:"column:rect_y" json:"rect_y,omitempty"`
	RectWidth  *float64 `gorm:"column:rect_width" json:"rect_width,omitempty"`
	RectHeight *float64 `gorm:"column:rect_height" json:"rect_height,omitempty"`

	VideoTimestamp *float64 `gorm:"column:video_timestamp" json:"video_timestamp,omitempty"`
	PageNumber     *int     `gorm:"column:page_number" json:"page_number,omitempty"`

	Resolved   bool       `gorm:"column:resolved;not null" json:"resolved"`
	ResolvedBy *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	// Mentions holds the mentioned user ids as a JSON array.
	Mentions datatypes.JSON `gorm:"column:mentions" json:"mentions"`

	Attachments []CommentAttachment `gorm:"foreignKey:CommentID" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Comment) TableName() string { return "comment" }

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if len(c.Mentions) == 0 {
		c.Mentions = datatypes.JSON("[]")
	}
	return nil
}

func (c *Comment) IsTopLevel() bool { return c.ParentID == nil || *c.ParentID == uuid.Nil }

func (c *Comment) HasRegion() bool {
	return c.RectX != nil && c.RectY != nil && c.RectWidth != nil && c.RectHeight != nil
}

func (c *Comment) MentionIDs() []uuid.UUID {
	if len(c.Mentions) == 0 {
		return nil
	}
	var raw []string
	if err := json.Unmarshal(c.Mentions, &raw); err != nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func EncodeMentions(ids []uuid.UUID) datatypes.JSON {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	b, _ := json.Marshal(raw)
	return datatypes.JSON(b)
}

type CommentAttachment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID uuid.UUID `gorm:"type:uuid;not null;index" json:"comment_id"`
	Path      string    `gorm:"column:path;not null" json:"path"`
	MimeType  string    `gorm:"column:mime_type" json:"mime_type,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CommentAttachment) TableName() string { return "comment_attachment" }

func (a *CommentAttachment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
