package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/tag"
)

// TagServiceInterface はタグハンドラーが必要とするサービスインターフェース。
type TagServiceInterface interface {
	ListCounts(ctx context.Context) ([]*model.TagCount, error)
	ListPopular(ctx context.Context) ([]*model.TagCount, error)
	GetByTag(ctx context.Context, tagValue string) (*tag.Detail, error)
	Rename(ctx context.Context, oldTag, newTag string) (int64, error)
	Remove(ctx context.Context, tagValue string) (int64, error)
}

// TagHandler はタグのHTTPハンドラー。
type TagHandler struct {
	service TagServiceInterface
}

// NewTagHandler はTagHandlerを生成する。
func NewTagHandler(service TagServiceInterface) *TagHandler {
	return &TagHandler{service: service}
}

// renameTagRequest はタグリネームリクエストのボディ。
type renameTagRequest struct {
	NewTag string `json:"newTag"`
}

// tagBulkResponse はタグ一括操作の結果レスポンス。
type tagBulkResponse struct {
	Modified int64 `json:"modified"`
}

// ListTags は公開記事のタグ別記事数を全件返す。
// GET /api/tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.ListCounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tags": toTagCountResponses(counts),
	})
}

// ListPopularTags は記事数上位のタグを返す。
// GET /api/tags/popular
func (h *TagHandler) ListPopularTags(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.ListPopular(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tags": toTagCountResponses(counts),
	})
}

// GetTag は指定タグを含む公開記事の一覧を返す。
// GET /api/tags/{tag}
func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tag":      detail.Tag,
		"articles": toPostSummaryResponses(detail.Articles),
	})
}

// RenameTag は全記事にわたってタグを一括リネームする。
// PATCH /api/admin/tags/{tag}
func (h *TagHandler) RenameTag(w http.ResponseWriter, r *http.Request) {
	var req renameTagRequest
	if !decodeBody(w, r, &req) {
		return
	}

	modified, err := h.service.Rename(r.Context(), chi.URLParam(r, "tag"), req.NewTag)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagBulkResponse{Modified: modified})
}

// RemoveTag は全記事からタグを一括削除する。
// DELETE /api/admin/tags/{tag}
func (h *TagHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	modified, err := h.service.Remove(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagBulkResponse{Modified: modified})
}
