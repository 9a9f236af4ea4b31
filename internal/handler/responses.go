// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeBody はリクエストボディをJSONとしてデコードする。
// 失敗時は400レスポンスを書き込み、falseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError(
			[]string{"body: リクエストボディの解析に失敗しました。"},
		))
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// 期待されるエラーはAPIErrorが保持するステータスで、それ以外は詳細を
// ログのみに記録して一般的な500で応答する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// requireUser はリクエストコンテキストから認証済みユーザーを取得する。
// 取得できない場合は401レスポンスを書き込み、nilを返す。
func requireUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
		return nil
	}
	return user
}

// --- レスポンスモデル ---

// socialLinksResponse はソーシャルリンクのAPIレスポンス。
type socialLinksResponse struct {
	Twitter string `json:"twitter,omitempty"`
	GitHub  string `json:"github,omitempty"`
	Website string `json:"website,omitempty"`
}

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュとログイン試行の内部状態は決して含めない。
type userResponse struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	Avatar      string              `json:"avatar"`
	Bio         string              `json:"bio,omitempty"`
	Role        string              `json:"role"`
	Social      socialLinksResponse `json:"social"`
	IsVerified  bool                `json:"isVerified"`
	LastLoginAt *time.Time          `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Avatar:   user.AvatarURL,
		Bio:      user.Bio,
		Role:     string(user.Role),
		Social: socialLinksResponse{
			Twitter: user.Social.Twitter,
			GitHub:  user.Social.GitHub,
			Website: user.Social.Website,
		},
		IsVerified:  user.IsVerified,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// authorResponse は公開記事に添える著者情報。メールアドレスは含めない。
type authorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio,omitempty"`
}

func toAuthorResponse(user *model.User) *authorResponse {
	if user == nil {
		return nil
	}
	return &authorResponse{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.AvatarURL,
		Bio:      user.Bio,
	}
}

// postMetaResponse は記事のエンゲージメント情報のAPIレスポンス。
// いいねはユーザーID一覧ではなく件数のみを公開する。
type postMetaResponse struct {
	Likes        int `json:"likes"`
	Views        int `json:"views"`
	CommentCount int `json:"commentCount"`
}

// postSEOResponse は記事のSEOメタデータのAPIレスポンス。
type postSEOResponse struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// postResponse は記事のAPIレスポンス。
type postResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Excerpt       string           `json:"excerpt"`
	Content       string           `json:"content"`
	Categories    []string         `json:"categories"`
	Tags          []string         `json:"tags"`
	AuthorID      string           `json:"authorId"`
	Status        string           `json:"status"`
	PublishedAt   *time.Time       `json:"publishedAt,omitempty"`
	FeaturedImage string           `json:"featuredImage,omitempty"`
	ReadTime      string           `json:"readTime"`
	IsFeatured    bool             `json:"isFeatured"`
	Meta          postMetaResponse `json:"meta"`
	SEO           postSEOResponse  `json:"seo"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func toPostResponse(post *model.Post) postResponse {
	return postResponse{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Excerpt:       post.Excerpt,
		Content:       post.Content,
		Categories:    post.CategoryIDs,
		Tags:          post.Tags,
		AuthorID:      post.AuthorID,
		Status:        string(post.Status),
		PublishedAt:   post.PublishedAt,
		FeaturedImage: post.FeaturedImage,
		ReadTime:      post.ReadTime,
		IsFeatured:    post.IsFeatured,
		Meta: postMetaResponse{
			Likes:        len(post.Meta.LikedBy),
			Views:        post.Meta.Views,
			CommentCount: post.Meta.CommentCount,
		},
		SEO: postSEOResponse{
			Title:       post.SEO.Title,
			Description: post.SEO.Description,
			Keywords:    post.SEO.Keywords,
		},
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// postSummaryResponse は一覧用の記事レスポンス。本文は含めない。
type postSummaryResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Excerpt       string           `json:"excerpt"`
	Categories    []string         `json:"categories"`
	Tags          []string         `json:"tags"`
	Status        string           `json:"status"`
	PublishedAt   *time.Time       `json:"publishedAt,omitempty"`
	FeaturedImage string           `json:"featuredImage,omitempty"`
	ReadTime      string           `json:"readTime"`
	IsFeatured    bool             `json:"isFeatured"`
	Meta          postMetaResponse `json:"meta"`
	Author        authorSummary    `json:"author"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// authorSummary は一覧用の著者情報。
type authorSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func toPostSummaryResponse(item *repository.PostListItem) postSummaryResponse {
	return postSummaryResponse{
		ID:            item.ID,
		Title:         item.Title,
		Slug:          item.Slug,
		Excerpt:       item.Excerpt,
		Categories:    item.CategoryIDs,
		Tags:          item.Tags,
		Status:        string(item.Status),
		PublishedAt:   item.PublishedAt,
		FeaturedImage: item.FeaturedImage,
		ReadTime:      item.ReadTime,
		IsFeatured:    item.IsFeatured,
		Meta: postMetaResponse{
			Likes:        len(item.Meta.LikedBy),
			Views:        item.Meta.Views,
			CommentCount: item.Meta.CommentCount,
		},
		Author: authorSummary{
			ID:       item.AuthorID,
			Username: item.AuthorUsername,
			Avatar:   item.AuthorAvatar,
		},
		CreatedAt: item.CreatedAt,
	}
}

func toPostSummaryResponses(items []*repository.PostListItem) []postSummaryResponse {
	out := make([]postSummaryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toPostSummaryResponse(item))
	}
	return out
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	FeaturedImage string    `json:"featuredImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toCategoryResponse(category *model.Category) categoryResponse {
	return categoryResponse{
		ID:            category.ID,
		Name:          category.Name,
		Slug:          category.Slug,
		Description:   category.Description,
		FeaturedImage: category.FeaturedImage,
		CreatedAt:     category.CreatedAt,
		UpdatedAt:     category.UpdatedAt,
	}
}

// categoryWithCountResponse は公開記事数付きカテゴリのAPIレスポンス。
// 記事数は保存値ではなく導出値。
type categoryWithCountResponse struct {
	categoryResponse
	ArticleCount      int        `json:"articleCount"`
	LatestPublishedAt *time.Time `json:"latestPublishedAt,omitempty"`
}

func toCategoryWithCountResponse(c *model.CategoryWithCount) categoryWithCountResponse {
	return categoryWithCountResponse{
		categoryResponse:  toCategoryResponse(&c.Category),
		ArticleCount:      c.ArticleCount,
		LatestPublishedAt: c.LatestPublishedAt,
	}
}

// tagCountResponse はタグ別記事数のAPIレスポンス。
type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func toTagCountResponses(counts []*model.TagCount) []tagCountResponse {
	out := make([]tagCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, tagCountResponse{Tag: c.Tag, Count: c.Count})
	}
	return out
}
