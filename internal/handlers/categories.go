package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"carematch/internal/models"
)

// CategoryLister lists the categories requests may be filed under.
type CategoryLister interface {
	GetActiveCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryHandler serves the category list used by request forms and filters.
type CategoryHandler struct {
	store CategoryLister
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(store CategoryLister) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// List returns every active category.
func (h *CategoryHandler) List(c fiber.Ctx) error {
	categories, err := h.store.GetActiveCategories(c.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal error")
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return jsonSuccess(c, categories)
}
