package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/inkpress/backoffice/internal/logging"
)

type LogsHandler struct {
	logger *logging.Logger
}

func NewLogsHandler(logger *logging.Logger) *LogsHandler {
	return &LogsHandler{logger: logger}
}

// ListLogs returns paginated audit entries, newest first, filterable by
// type, action (trailing * for prefix match), actor email and date range.
func (h *LogsHandler) ListLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filter := logging.Filter{
		Type:      c.Query("type"),
		UserEmail: c.Query("user_email"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	if action := c.Query("action"); action != "" {
		if strings.HasSuffix(action, "*") {
			filter.ActionPrefix = strings.TrimSuffix(action, "*")
		} else {
			filter.Action = action
		}
	}

	if from := c.Query("date_from"); from != "" {
		t, err := parseDateParam(from, false)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid date_from, expected RFC3339 or YYYY-MM-DD",
			})
		}
		filter.DateFrom = t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := parseDateParam(to, true)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid date_to, expected RFC3339 or YYYY-MM-DD",
			})
		}
		filter.DateTo = t
	}

	logs, total, err := h.logger.GetLogs(c.Context(), filter, actorFromCtx(c), reqMeta(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch logs",
		})
	}

	pages := int64(0)
	if total > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}

	return c.JSON(fiber.Map{
		"logs": logs,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

// DeleteLogs purges entries older than older_than_days (default 30).
// Values below the retention guardrail are rejected with 400 and
// nothing is deleted.
func (h *LogsHandler) DeleteLogs(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("older_than_days", "30"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "older_than_days must be an integer",
		})
	}

	deleted, err := h.logger.DeleteLogs(c.Context(), days, actorFromCtx(c), reqMeta(c))
	if err != nil {
		var verr *logging.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": verr.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete logs",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"deleted_count": deleted,
		"message":       "Deleted " + strconv.FormatInt(deleted, 10) + " log entries older than " + strconv.Itoa(days) + " days",
	})
}

// Stats returns the aggregate log view.
func (h *LogsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.logger.GetStats(c.Context(), actorFromCtx(c), reqMeta(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch log stats",
		})
	}

	return c.JSON(fiber.Map{
		"stats":     stats,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ClientLog ingests an entry relayed from browser-side code. The type
// and action are re-validated here, the source tag is forced to
// client_side, and ip/user-agent come from this request, never from the
// client-supplied payload.
func (h *LogsHandler) ClientLog(c *fiber.Ctx) error {
	var req struct {
		Type    string         `json:"type"`
		Action  string         `json:"action"`
		Details map[string]any `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	id, err := h.logger.LogClientEvent(c.Context(), req.Type, req.Action, req.Details, reqMeta(c))
	if err != nil {
		var verr *logging.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": verr.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to record log",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"log_id":  id,
		"message": "Log recorded",
	})
}
