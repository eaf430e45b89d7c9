package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/monaam/reviewflow-sub000/internal/platform/apierr"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

const maxUploadMemory = 32 << 20

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		if err == nil {
			err = fmt.Errorf("%s must not be nil", name)
		}
		return uuid.Nil, apierr.BadRequest(code, err)
	}
	return id, nil
}

func optionalUUID(raw, code string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierr.BadRequest(code, err)
	}
	return &id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest("invalid_request", err)
	}
	return nil
}

// formFile opens the multipart file under field. The caller closes the returned closer.
func formFile(c *gin.Context, field string) (services.FileUpload, io.Closer, error) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		return services.FileUpload{}, nil, apierr.BadRequest("invalid_multipart_form", err)
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return services.FileUpload{}, nil, apierr.BadRequest("missing_file", err)
	}
	f, err := fh.Open()
	if err != nil {
		return services.FileUpload{}, nil, apierr.BadRequest("unreadable_file", err)
	}
	return services.FileUpload{
		Name:     fh.Filename,
		Reader:   f,
		Size:     fh.Size,
		MimeType: headerMime(fh),
		Notes:    strings.TrimSpace(c.PostForm("notes")),
	}, f, nil
}

func headerMime(fh *multipart.FileHeader) string {
	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
