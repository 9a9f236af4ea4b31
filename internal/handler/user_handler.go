package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// UpdateProfile は操作者自身のプロフィールを更新する。
	UpdateProfile(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error)
	// List は全ユーザーを返す。管理画面用。
	List(ctx context.Context) ([]*model.User, error)
}

// UserHandler はプロフィールとユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// GetProfile は操作者自身のプロフィールを返す。
// GET /api/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(actor))
}

// UpdateProfile は操作者自身のプロフィールを更新する。
// 所有権はコンテキストのユーザーで固定され、他者のプロフィールには届かない。
// PUT /api/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	var in validation.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), actor, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// ListUsers は全ユーザーを安全なフィールドのみで返す。
// GET /api/admin/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": out,
	})
}
