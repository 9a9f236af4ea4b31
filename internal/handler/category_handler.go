package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/category"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/validation"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	ListWithCounts(ctx context.Context) ([]*model.CategoryWithCount, error)
	GetBySlug(ctx context.Context, slug string) (*category.Detail, error)
	Create(ctx context.Context, in validation.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in validation.CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

// CategoryHandler はカテゴリのHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// ListCategories は全カテゴリを公開記事数付きで返す。
// GET /api/categories, GET /api/admin/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ListWithCounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	categories := make([]categoryWithCountResponse, 0, len(results))
	for _, c := range results {
		categories = append(categories, toCategoryWithCountResponse(c))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
	})
}

// GetCategory はスラグでカテゴリと所属する公開記事を返す。
// 記事が1件もないカテゴリも空の一覧付きの200で応答する。
// GET /api/categories/{slug}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category": toCategoryResponse(detail.Category),
		"articles": toPostSummaryResponses(detail.Articles),
		"count":    len(detail.Articles),
	})
}

// CreateCategory はカテゴリを作成する。
// POST /api/admin/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in validation.CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

// UpdateCategory はカテゴリを更新する。
// PUT /api/admin/categories/{id}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in validation.CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

// DeleteCategory はカテゴリを削除する。
// DELETE /api/admin/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
