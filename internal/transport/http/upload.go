package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/service"
)

// Upload validates a multipart file and stores it with the media host.
// POST /api/upload
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(attachment.ErrNoFile.Error()))
	}

	file, err := fh.Open()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to open uploaded file")
		return c.JSON(http.StatusInternalServerError, errorBody(attachment.ErrUploadFailed.Error()))
	}
	defer file.Close()

	att, err := h.service.Upload(c.Request().Context(), service.UploadFile{
		Name:     fh.Filename,
		MimeType: fh.Header.Get(echo.HeaderContentType),
		Size:     fh.Size,
		Content:  file,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, domain.UploadResponse{Attachment: att})
	case errors.Is(err, attachment.ErrTypeNotAllowed), errors.Is(err, attachment.ErrTooLarge):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, errorBody(attachment.ErrUploadFailed.Error()))
	}
}
