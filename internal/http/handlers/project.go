package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
}

func NewProjectHandler(projects services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// GET /api/projects/:id/members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	projectID, err := uuidParam(c, "id", "invalid_project_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.projects.ListMembers(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": rows})
}

type memberBody struct {
	Role            string `json:"role"`
	NotifyComments  bool   `json:"notify_comments"`
	NotifyApprovals bool   `json:"notify_approvals"`
	NotifyUploads   bool   `json:"notify_uploads"`
}

// PUT /api/projects/:id/members/:userId
func (h *ProjectHandler) UpsertMember(c *gin.Context) {
	projectID, err := uuidParam(c, "id", "invalid_project_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	userID, err := uuidParam(c, "userId", "invalid_user_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var body memberBody
	if err := bindJSON(c, &body); err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.projects.UpsertMember(c.Request.Context(), projectID, userID, services.MemberSettings{
		Role:            review.Role(body.Role),
		NotifyComments:  body.NotifyComments,
		NotifyApprovals: body.NotifyApprovals,
		NotifyUploads:   body.NotifyUploads,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"member": m})
}
