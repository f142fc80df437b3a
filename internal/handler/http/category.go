package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/pkg/httputil"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(catalog Catalog, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}
