package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/taskforge/attachment-service/internal/adapter/multipart"
	"github.com/taskforge/attachment-service/internal/domain/apperrors"
	"github.com/taskforge/attachment-service/internal/usecase"
	"go.uber.org/zap"
)

// fileField is the multipart field name carrying the upload.
const fileField = "file"

// AttachmentHandler handles HTTP requests for attachment upload, listing,
// download and deletion.
type AttachmentHandler struct {
	decoder     *multipart.Decoder
	uploads     *usecase.UploadService
	attachments *usecase.AttachmentService
	logger      *zap.Logger
}

// NewAttachmentHandler creates and returns a new AttachmentHandler instance.
func NewAttachmentHandler(
	decoder *multipart.Decoder,
	uploads *usecase.UploadService,
	attachments *usecase.AttachmentService,
	logger *zap.Logger,
) *AttachmentHandler {
	return &AttachmentHandler{
		decoder:     decoder,
		uploads:     uploads,
		attachments: attachments,
		logger:      logger,
	}
}

// Upload handles attachment upload requests.
// Endpoint: POST /tasks/:task_id/attachments
func (h *AttachmentHandler) Upload(c echo.Context) error {
	taskID := c.Param("task_id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "task_id is required"})
	}

	form, err := h.decoder.Decode(c.Request())
	if err != nil {
		return h.errorResponse(c, err)
	}
	// Scratch files are reclaimed whether or not the pipeline commits them.
	defer form.Cleanup()

	part, ok := form.File(fileField)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("multipart field %q is required", fileField),
		})
	}

	attachment, err := h.uploads.Upload(c.Request().Context(), taskID, part)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, attachment)
}

// List handles GET /tasks/:task_id/attachments requests.
func (h *AttachmentHandler) List(c echo.Context) error {
	taskID := c.Param("task_id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "task_id is required"})
	}

	attachments, err := h.attachments.List(c.Request().Context(), taskID)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, attachments)
}

// Download streams attachment bytes back to the caller.
// Endpoint: GET /tasks/:task_id/attachments/:id
func (h *AttachmentHandler) Download(c echo.Context) error {
	taskID, id, err := h.scopedID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}

	attachment, contentType, body, err := h.attachments.Download(c.Request().Context(), taskID, id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	defer body.Close()

	// The attachment disposition with the sanitized display name makes the
	// browser download rather than render; nosniff stops it second-guessing
	// the allowlist-derived content type.
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, quoteEscape(attachment.DisplayName)))
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(attachment.SizeBytes, 10))

	return c.Stream(http.StatusOK, contentType, body)
}

// Delete handles DELETE /tasks/:task_id/attachments/:id requests.
func (h *AttachmentHandler) Delete(c echo.Context) error {
	taskID, id, err := h.scopedID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}

	if err := h.attachments.Delete(c.Request().Context(), taskID, id); err != nil {
		return h.errorResponse(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// scopedID extracts the (task, attachment) pair from the path. A syntactically
// invalid attachment id cannot exist, so it reports plain not-found.
func (h *AttachmentHandler) scopedID(c echo.Context) (string, uuid.UUID, error) {
	taskID := c.Param("task_id")
	if taskID == "" {
		return "", uuid.Nil, apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", nil)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", uuid.Nil, apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", err)
	}
	return taskID, id, nil
}

// errorResponse converts a pipeline error into its HTTP shape. Decode and
// validation failures carry their specific reasons; store and metadata
// failures are logged in full and answered generically.
func (h *AttachmentHandler) errorResponse(c echo.Context, err error) error {
	code := apperrors.CodeOf(err)
	status := apperrors.ToHTTPStatus(code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("Attachment request failed",
			zap.String("code", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		return c.JSON(status, map[string]string{"error": "internal server error"})
	}

	return c.JSON(status, map[string]string{"error": apperrors.Message(err)})
}

// quoteEscape makes a display name safe inside a quoted-string header value.
func quoteEscape(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	return strings.ReplaceAll(name, `"`, `\"`)
}
