package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type CommentHandler struct {
	log      *logger.Logger
	comments services.CommentService
}

func NewCommentHandler(log *logger.Logger, comments services.CommentService) *CommentHandler {
	return &CommentHandler{log: log.With("handler", "CommentHandler"), comments: comments}
}

type createCommentBody struct {
	ParentID       string   `json:"parent_id"`
	AssetVersion   *int     `json:"asset_version"`
	Content        string   `json:"content"`
	RectX          *float64 `json:"rect_x"`
	RectY          *float64 `json:"rect_y"`
	RectWidth      *float64 `json:"rect_width"`
	RectHeight     *float64 `json:"rect_height"`
	VideoTimestamp *float64 `json:"video_timestamp"`
	PageNumber     *int     `json:"page_number"`
	Mentions       []string `json:"mentions"`
	StagedMedia    []string `json:"staged_media"`
}

// POST /api/assets/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body createCommentBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	parentID, err := optionalUUID(body.ParentID, "invalid_parent_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	mentions := make([]uuid.UUID, 0, len(body.Mentions))
	for _, raw := range body.Mentions {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apierr.BadRequest("invalid_mention", err))
			return
		}
		mentions = append(mentions, id)
	}
	res, err := h.comments.Create(c.Request.Context(), services.CreateCommentRequest{
		AssetID:      assetID,
		ParentID:     parentID,
		AssetVersion: body.AssetVersion,
		Content:      body.Content,
		Anchor: review.Anchor{
			Region: review.RegionInput{
				X:      body.RectX,
				Y:      body.RectY,
				Width:  body.RectWidth,
				Height: body.RectHeight,
			},
			Timestamp: body.VideoTimestamp,
			Page:      body.PageNumber,
		},
		MentionIDs:     mentions,
		StagedMediaIDs: body.StagedMedia,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": res.Comment})
}

type resolveBody struct {
	Resolved *bool `json:"resolved" binding:"required"`
}

// PATCH /api/comments/:id/resolve
func (h *CommentHandler) SetResolved(c *gin.Context) {
	commentID, err := uuidParam(c, "id", "invalid_comment_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body resolveBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.comments.SetResolved(c.Request.Context(), commentID, *body.Resolved)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comment": res.Comment, "changed": res.Changed})
}

// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := uuidParam(c, "id", "invalid_comment_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.comments.Delete(c.Request.Context(), commentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted_ids": res.CommentIDs})
}

// POST /api/comments/media
func (h *CommentHandler) StageMedia(c *gin.Context) {
	file, closer, err := formFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer.Close()

	m, err := h.comments.StageMedia(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"temp_id": m.TempID, "mime_type": m.MimeType, "expires_at": m.ExpiresAt})
}
