package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inkpress/backoffice/internal/logging"
	"github.com/inkpress/backoffice/internal/models"
	"gorm.io/gorm"
)

type BookHandler struct {
	db     *gorm.DB
	logger *logging.Logger
}

func NewBookHandler(db *gorm.DB, logger *logging.Logger) *BookHandler {
	return &BookHandler{db: db, logger: logger}
}

// ListPublicBooks returns published titles for the public site.
func (h *BookHandler) ListPublicBooks(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query := h.db.Model(&models.Book{}).Where("published = ?", true)
	query.Count(&total)

	var books []models.Book
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&books).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list books",
		})
	}

	return c.JSON(fiber.Map{
		"books": books,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// ListBooks returns all titles, drafts included, for the admin UI.
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	var books []models.Book
	if err := h.db.Order("created_at DESC").Find(&books).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list books",
		})
	}
	return c.JSON(fiber.Map{"books": books})
}

func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid book ID",
		})
	}

	var book models.Book
	if err := h.db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Book not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch book",
		})
	}
	return c.JSON(book)
}

type bookRequest struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ISBN        string     `json:"isbn"`
	CoverURL    string     `json:"cover_url"`
	BuyLink     string     `json:"buy_link"`
	Published   *bool      `json:"published"`
	ReleaseDate *time.Time `json:"release_date"`
}

// CreateBook adds a title to the catalog. Both outcomes are audited.
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title is required",
		})
	}

	book := models.Book{
		ID:          uuid.New(),
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		ISBN:        req.ISBN,
		CoverURL:    req.CoverURL,
		BuyLink:     req.BuyLink,
		ReleaseDate: req.ReleaseDate,
	}
	if book.Slug == "" {
		book.Slug = slugify(req.Title)
	}
	if req.Published != nil {
		book.Published = *req.Published
	}

	if err := h.db.Create(&book).Error; err != nil {
		h.logger.LogBookOperation(c.Context(), "create", book.ID, book.Title, err, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create book",
		})
	}

	h.logger.LogBookOperation(c.Context(), "create", book.ID, book.Title, nil, actorFromCtx(c), reqMeta(c))
	return c.Status(fiber.StatusCreated).JSON(book)
}

func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid book ID",
		})
	}

	var book models.Book
	if err := h.db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Book not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch book",
		})
	}

	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Title != "" {
		book.Title = req.Title
	}
	if req.Slug != "" {
		book.Slug = req.Slug
	}
	if req.Description != "" {
		book.Description = req.Description
	}
	if req.ISBN != "" {
		book.ISBN = req.ISBN
	}
	if req.CoverURL != "" {
		book.CoverURL = req.CoverURL
	}
	if req.BuyLink != "" {
		book.BuyLink = req.BuyLink
	}
	if req.Published != nil {
		book.Published = *req.Published
	}
	if req.ReleaseDate != nil {
		book.ReleaseDate = req.ReleaseDate
	}

	if err := h.db.Save(&book).Error; err != nil {
		h.logger.LogBookOperation(c.Context(), "update", book.ID, book.Title, err, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update book",
		})
	}

	h.logger.LogBookOperation(c.Context(), "update", book.ID, book.Title, nil, actorFromCtx(c), reqMeta(c))
	return c.JSON(book)
}

func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid book ID",
		})
	}

	var book models.Book
	if err := h.db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Book not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to fetch book",
		})
	}

	if err := h.db.Delete(&book).Error; err != nil {
		h.logger.LogBookOperation(c.Context(), "delete", book.ID, book.Title, err, actorFromCtx(c), reqMeta(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete book",
		})
	}

	h.logger.LogBookOperation(c.Context(), "delete", book.ID, book.Title, nil, actorFromCtx(c), reqMeta(c))
	return c.JSON(fiber.Map{"message": "Book deleted"})
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
