package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/monaam/reviewflow-sub000/internal/http/response"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/timeline"
	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type TimelineHandler struct {
	timeline services.TimelineService
}

func NewTimelineHandler(timeline services.TimelineService) *TimelineHandler {
	return &TimelineHandler{timeline: timeline}
}

// GET /api/assets/:id/timeline?version=N|all
func (h *TimelineHandler) Get(c *gin.Context) {
	assetID, err := uuidParam(c, "id", "invalid_asset_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	q := timeline.Query{AssetID: assetID}
	raw := strings.TrimSpace(c.Query("version"))
	switch {
	case strings.EqualFold(raw, "all"):
		q.All = true
	case raw != "":
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apierr.BadRequest("invalid_version", err))
			return
		}
		q.Version = &v
	}
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		q.All = true
	}
	res, err := h.timeline.Get(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}
