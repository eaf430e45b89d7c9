package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/monaam/reviewflow-sub000/internal/domain/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type AssetHandler struct {
	log    *logger.Logger
	assets services.AssetService
}

func NewAssetHandler(log *logger.Logger, assets services.AssetService) *AssetHandler {
	return &AssetHandler{log: log.With("handler", "AssetHandler"), assets: assets}
}

// POST /api/projects/:id/assets
func (h *AssetHandler) Create(c *gin.Context) {
	projectID, err := uuidParam(c, "id", "invalid_project_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, closer, err := formFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer.Close()

	requestID, err := optionalUUID(c.PostForm("request_id"), "invalid_request_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var deadline *time.Time
	if raw := strings.TrimSpace(c.PostForm("deadline")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apierr.BadRequest("invalid_deadline", err))
			return
		}
		deadline = &t
	}
	res, err := h.assets.Create(c.Request.Context(), services.CreateAssetRequest{
		ProjectID: projectID,
		RequestID: requestID,
		Title:     c.PostForm("title"),
		Type:      review.AssetType(strings.TrimSpace(c.PostForm("type"))),
		Deadline:  deadline,
		File:      file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"asset": res.Asset, "version": res.Version, "request_link": res.Link})
}

// GET /api/projects/:id/assets?status=in_review,approved
func (h *AssetHandler) List(c *gin.Context) {
	projectID, err := uuidParam(c, "id", "invalid_project_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var statuses []review.AssetStatus
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st, ok := review.ParseStatus(part)
			if !ok {
				response.Error(c, apierr.BadRequest("invalid_status", fmt.Errorf("unknown asset status %q", part)))
				return
			}
			statuses = append(statuses, st)
		}
	}
	rows, err := h.assets.List(c.Request.Context(), projectID, statuses)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": rows})
}

// GET /api/assets/:id
func (h *AssetHandler) Get(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	asset, err := h.assets.Get(c.Request.Context(), assetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset": asset})
}

// GET /api/assets/:id/versions
func (h *AssetHandler) ListVersions(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.assets.ListVersions(c.Request.Context(), assetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"versions": rows})
}

// POST /api/assets/:id/versions
func (h *AssetHandler) UploadVersion(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, closer, err := formFile(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer.Close()

	res, err := h.assets.UploadVersion(c.Request.Context(), assetID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"asset": res.Asset, "version": res.Version})
}

// POST /api/assets/:id/send-to-client
func (h *AssetHandler) SendToClient(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.assets.SendToClient(c.Request.Context(), assetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset": res.Asset})
}

type decisionFunc func(ctx context.Context, assetID uuid.UUID, comment string) (*domainagg.DecisionResult, error)

type decisionBody struct {
	Comment string `json:"comment"`
}

// POST /api/assets/:id/approve
func (h *AssetHandler) Approve(c *gin.Context) {
	h.decide(c, h.assets.Approve)
}

// POST /api/assets/:id/request-revision
func (h *AssetHandler) RequestRevision(c *gin.Context) {
	h.decide(c, h.assets.RequestRevision)
}

func (h *AssetHandler) decide(c *gin.Context, fn decisionFunc) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body decisionBody
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &body); err != nil {
			response.Error(c, err)
			return
		}
	}
	res, err := fn(c.Request.Context(), assetID, body.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset": res.Asset, "approval": res.Log})
}

type lockBody struct {
	Locked *bool `json:"locked" binding:"required"`
}

// PUT /api/assets/:id/lock
func (h *AssetHandler) SetLocked(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body lockBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.assets.SetLocked(c.Request.Context(), assetID, *body.Locked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset": res.Asset})
}

type linkBody struct {
	RequestID string `json:"request_id" binding:"required"`
}

// PUT /api/assets/:id/request
func (h *AssetHandler) LinkRequest(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body linkBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	requestID, err := uuid.Parse(strings.TrimSpace(body.RequestID))
	if err != nil {
		response.Error(c, apierr.BadRequest("invalid_request_id", err))
		return
	}
	res, err := h.assets.LinkRequest(c.Request.Context(), assetID, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"asset": res.Asset, "request": res.Link.Request, "auto_assigned": res.Link.AutoAssigned})
}

// DELETE /api/assets/:id
func (h *AssetHandler) Delete(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.assets.Delete(c.Request.Context(), assetID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondNoContent(c)
}
