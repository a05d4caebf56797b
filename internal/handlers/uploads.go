package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/logging"
	"github.com/inkpress/backoffice/internal/storage"
)

// maxUploadSize caps media uploads at 10MB.
const maxUploadSize = 10 * 1024 * 1024

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

type MediaHandler struct {
	store  *storage.MediaStore
	logger *logging.Logger
}

func NewMediaHandler(store *storage.MediaStore, logger *logging.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Upload stores one multipart file in the media bucket under a
// date-keyed path. Size and content type are checked before anything
// touches the bucket; every attempt is audited either way.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Missing file field",
		})
	}

	contentType := file.Header.Get("Content-Type")
	uploadCtx := c.FormValue("context", "admin_media")

	if file.Size > maxUploadSize {
		cause := fmt.Errorf("file too large: %d bytes", file.Size)
		h.logger.LogFileUpload(c.Context(), file.Filename, file.Size, contentType, uploadCtx, cause, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "File exceeds the 10MB limit",
		})
	}
	if !allowedUploadTypes[contentType] {
		cause := errors.New("disallowed content type: " + contentType)
		h.logger.LogFileUpload(c.Context(), file.Filename, file.Size, contentType, uploadCtx, cause, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "File type not allowed",
		})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.LogFileUpload(c.Context(), file.Filename, file.Size, contentType, uploadCtx, err, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read upload",
		})
	}
	defer src.Close()

	key := fmt.Sprintf("media/%s/%s%s",
		time.Now().UTC().Format("2006/01"),
		uuid.New().String(),
		filepath.Ext(file.Filename),
	)

	if err := h.store.Upload(c.Context(), key, src, file.Size, contentType); err != nil {
		h.logger.LogFileUpload(c.Context(), file.Filename, file.Size, contentType, uploadCtx, err, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to store file",
		})
	}

	h.logger.LogFileUpload(c.Context(), file.Filename, file.Size, contentType, uploadCtx, nil, actorFromCtx(c), reqMeta(c))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"key":     key,
	})
}

// List returns stored media objects for the admin library view.
func (h *MediaHandler) List(c *fiber.Ctx) error {
	prefix := c.Query("prefix", "media/")

	objects, err := h.store.List(c.Context(), prefix)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list media",
		})
	}
	return c.JSON(fiber.Map{"objects": objects})
}
