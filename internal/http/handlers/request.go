package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type RequestHandler struct {
	requests services.RequestService
}

func NewRequestHandler(requests services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

type createRequestBody struct {
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id"`
}

// POST /api/projects/:id/requests
func (h *RequestHandler) Create(c *gin.Context) {
	projectID, err := uuidParam(c, "id", "invalid_project_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body createRequestBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	assignee, err := optionalUUID(body.AssigneeID, "invalid_assignee_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.requests.Create(c.Request.Context(), services.CreateRequestRequest{
		ProjectID:  projectID,
		Title:      body.Title,
		AssigneeID: assignee,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"request": req})
}

// GET /api/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, err := uuidParam(c, "id", "invalid_request_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.requests.Get(c.Request.Context(), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": req})
}

type assignBody struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

// PUT /api/requests/:id/assignee
func (h *RequestHandler) Assign(c *gin.Context) {
	requestID, err := uuidParam(c, "id", "invalid_request_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body assignBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	assignee, err := uuid.Parse(strings.TrimSpace(body.AssigneeID))
	if err != nil {
		response.Error(c, apierr.BadRequest("invalid_assignee_id", err))
		return
	}
	res, err := h.requests.Assign(c.Request.Context(), requestID, assignee)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": res.Request, "changed": res.Changed})
}

type statusBody struct {
	Status string `json:"status" binding:"required"`
}

// PUT /api/requests/:id/status
func (h *RequestHandler) ChangeStatus(c *gin.Context) {
	requestID, err := uuidParam(c, "id", "invalid_request_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body statusBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.requests.ChangeStatus(c.Request.Context(), requestID, review.RequestStatus(strings.TrimSpace(body.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": res.Request, "previous_status": res.PreviousStatus, "changed": res.Changed})
}
