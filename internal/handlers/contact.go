package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/logging"
	"github.com/inkpress/backoffice/internal/models"
	"gorm.io/gorm"
)

type ContactHandler struct {
	db     *gorm.DB
	logger *logging.Logger
}

func NewContactHandler(db *gorm.DB, logger *logging.Logger) *ContactHandler {
	return &ContactHandler{db: db, logger: logger}
}

// Submit receives the public contact form. Submissions are audited
// through the contact_form action family, failures included.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Name, email, and message are required",
		})
	}
	if !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid email address",
		})
	}

	msg := models.ContactMessage{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := h.db.Create(&msg).Error; err != nil {
		h.logger.LogContactFormSubmission(c.Context(), req.Name, req.Email, req.Subject, err, reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to submit message",
		})
	}

	h.logger.LogContactFormSubmission(c.Context(), req.Name, req.Email, req.Subject, nil, reqMeta(c))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message received",
	})
}

// ListMessages returns paginated contact messages for the admin inbox,
// optionally only unread ones.
func (h *ContactHandler) ListMessages(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := h.db.Model(&models.ContactMessage{})
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var total int64
	query.Count(&total)

	var messages []models.ContactMessage
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list messages",
		})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// MarkRead flags a message as handled.
func (h *ContactHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid message ID",
		})
	}

	res := h.db.Model(&models.ContactMessage{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update message",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Message not found",
		})
	}

	h.logger.LogSuccess(c.Context(), "contact_message_read", map[string]any{
		"message_id": id.String(),
	}, actorFromCtx(c), reqMeta(c))

	return c.JSON(fiber.Map{"message": "Marked as read"})
}

// DeleteMessage removes a message from the inbox.
func (h *ContactHandler) DeleteMessage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid message ID",
		})
	}

	res := h.db.Delete(&models.ContactMessage{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete message",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Message not found",
		})
	}

	h.logger.LogSuccess(c.Context(), "contact_message_deleted", map[string]any{
		"message_id": id.String(),
	}, actorFromCtx(c), reqMeta(c))

	return c.JSON(fiber.Map{"message": "Message deleted"})
}
