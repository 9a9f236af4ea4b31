package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/validation"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	updateProfileFn func(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error)
	listFn          func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, actor, in)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- GET /api/profile テスト ---

// コンテキストのユーザーがそのまま返ることを検証
func TestGetProfile_ReturnsContextUser(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/profile", nil), &model.User{
		ID:           testUserID,
		Username:     "taro",
		Email:        "taro@example.com",
		PasswordHash: "$2a$10$secret-hash",
		Role:         model.RoleUser,
		Social:       model.SocialLinks{GitHub: "https://github.com/taro"},
	})
	w := httptest.NewRecorder()
	h.GetProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var user userResponse
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.Username != "taro" || user.Social.GitHub != "https://github.com/taro" {
		t.Errorf("user = %+v", user)
	}
}

// 認証なしのアクセスが401となることを検証
func TestGetProfile_NoUser(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	h.GetProfile(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

// --- PUT /api/profile テスト ---

// プロフィール更新が操作者自身に対して行われることを検証
func TestUpdateProfile_UsesContextActor(t *testing.T) {
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error) {
			if actor.ID != testUserID {
				t.Errorf("actor.ID = %q, want %q", actor.ID, testUserID)
			}
			if in.Bio != "Goを書いています" {
				t.Errorf("in.Bio = %q", in.Bio)
			}
			updated := *actor
			updated.Bio = in.Bio
			return &updated, nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"username": "taro", "email": "taro@example.com", "bio": "Goを書いています"}`
	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(body))
	req = withUser(req, testAuthor())
	w := httptest.NewRecorder()
	h.UpdateProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var user userResponse
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.Bio != "Goを書いています" {
		t.Errorf("bio = %q", user.Bio)
	}
}

// 検証エラーが400で透過されることを検証
func TestUpdateProfile_ValidationError(t *testing.T) {
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error) {
			return nil, model.NewValidationError([]string{"email: メールアドレスの形式が正しくありません。"})
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{"email": "bad"}`))
	req = withUser(req, testAuthor())
	w := httptest.NewRecorder()
	h.UpdateProfile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeErrorBody(t, w); len(body.Errors) != 1 {
		t.Errorf("errors = %v, want 1 entry", body.Errors)
	}
}

// --- GET /api/admin/users テスト ---

// ユーザー一覧にパスワードハッシュが決して現れないことを検証
func TestListUsers_OmitsSensitiveFields(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: testUserID, Username: "taro", Email: "taro@example.com", PasswordHash: "$2a$10$topsecret", Role: model.RoleUser},
				{ID: testAdminID, Username: "admin", Email: "admin@example.com", PasswordHash: "$2a$10$alsosecret", Role: model.RoleAdmin},
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	w := httptest.NewRecorder()
	h.ListUsers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "topsecret") || strings.Contains(w.Body.String(), "$2a$") {
		t.Error("response must not contain password hashes")
	}

	var body struct {
		Users []userResponse `json:"users"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(body.Users))
	}
}
