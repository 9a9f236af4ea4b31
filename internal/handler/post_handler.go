package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/validation"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	ListPublished(ctx context.Context, limit, offset int) ([]*repository.PostListItem, error)
	GetPublished(ctx context.Context, id string) (*post.Detail, error)
	ToggleLike(ctx context.Context, postID, userID string) (*repository.LikeResult, error)
	ListForActor(ctx context.Context, actor *model.User) ([]*repository.PostListItem, error)
	GetForActor(ctx context.Context, actor *model.User, id string) (*post.Detail, error)
	Create(ctx context.Context, actor *model.User, in validation.PostInput) (*model.Post, error)
	Update(ctx context.Context, actor *model.User, id string, in validation.PostInput) (*model.Post, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

// PostMetricsRecorder は記事操作のメトリクス記録インターフェース。
type PostMetricsRecorder interface {
	RecordPostCreated(status string)
	RecordLikeToggle()
}

// PostHandler は記事のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	metrics PostMetricsRecorder // nilを許容する
}

// NewPostHandler はPostHandlerを生成する。metricsはnilを許容する。
func NewPostHandler(service PostServiceInterface, metrics PostMetricsRecorder) *PostHandler {
	return &PostHandler{
		service: service,
		metrics: metrics,
	}
}

// postDetailResponse は参照展開済みの記事詳細レスポンス。
// AuthorとCategoriesは埋め込みのID参照を展開済みの形で上書きする。
type postDetailResponse struct {
	postResponse
	Author     *authorResponse    `json:"author"`
	Categories []categoryResponse `json:"categories"`
}

func toPostDetailResponse(d *post.Detail) postDetailResponse {
	categories := make([]categoryResponse, 0, len(d.Categories))
	for _, c := range d.Categories {
		categories = append(categories, toCategoryResponse(c))
	}
	return postDetailResponse{
		postResponse: toPostResponse(d.Post),
		Author:       toAuthorResponse(d.Author),
		Categories:   categories,
	}
}

// likeResponse はいいねトグル結果のレスポンス。
type likeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// ListPosts は公開記事の一覧を返す。
// GET /api/posts?limit=20&offset=0
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	items, err := h.service.ListPublished(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": toPostSummaryResponses(items),
	})
}

// GetPost は公開記事の詳細を返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostDetailResponse(detail))
}

// ToggleLike はいいね状態をトグルする。
// PATCH /api/posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	result, err := h.service.ToggleLike(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLikeToggle()
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: result.Liked, Likes: result.Count})
}

// ListAdminPosts は管理画面用の記事一覧を公開状態別に返す。
// GET /api/admin/posts
func (h *PostHandler) ListAdminPosts(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	items, err := h.service.ListForActor(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	grouped := map[string][]postSummaryResponse{
		"drafts":    {},
		"published": {},
		"archived":  {},
	}
	for _, item := range items {
		switch item.Status {
		case model.PostStatusPublished:
			grouped["published"] = append(grouped["published"], toPostSummaryResponse(item))
		case model.PostStatusArchived:
			grouped["archived"] = append(grouped["archived"], toPostSummaryResponse(item))
		default:
			grouped["drafts"] = append(grouped["drafts"], toPostSummaryResponse(item))
		}
	}

	writeJSON(w, http.StatusOK, grouped)
}

// GetAdminPost は管理画面用に記事詳細を返す。下書きも取得できる。
// GET /api/admin/posts/{id}
func (h *PostHandler) GetAdminPost(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	detail, err := h.service.GetForActor(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostDetailResponse(detail))
}

// CreatePost は記事を作成する。
// POST /api/admin/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	var in validation.PostInput
	if !decodeBody(w, r, &in) {
		return
	}

	created, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPostCreated(string(created.Status))
	}
	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// UpdatePost は記事を更新する。
// PUT /api/admin/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	var in validation.PostInput
	if !decodeBody(w, r, &in) {
		return
	}

	updated, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// DeletePost は記事を削除する。
// DELETE /api/admin/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt はクエリパラメータを整数として読み取る。不正値と欠如は0を返す。
func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
