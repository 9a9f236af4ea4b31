package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/validation"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	updateProfileFn  func(ctx context.Context, user *model.User) error
	listFn           func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) RecordLoginFailure(_ context.Context, _ string, _ int, _ *time.Time) error {
	return nil
}

func (m *mockUserRepo) RecordLoginSuccess(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) ClearExpiredLocks(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func testActor() *model.User {
	return &model.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     model.RoleAuthor,
	}
}

// --- テスト ---

// プロフィール更新がメールを小文字化して保存することを検証
func TestUpdateProfile_NormalizesEmail(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepo{
		updateProfileFn: func(_ context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.UpdateProfile(context.Background(), testActor(), validation.ProfileInput{
		Username: "alice",
		Email:    "Alice@NEW.example.com",
		Bio:      "writing about Go",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if saved.Email != "alice@new.example.com" {
		t.Errorf("saved email = %q, want lowercase", saved.Email)
	}
	if updated.Bio != "writing about Go" {
		t.Errorf("bio = %q", updated.Bio)
	}
}

// 他ユーザーのユーザー名への変更が409になることを検証
func TestUpdateProfile_UsernameTaken(t *testing.T) {
	repo := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.User, error) {
			return &model.User{ID: "someone-else"}, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), testActor(), validation.ProfileInput{
		Username: "bob",
		Email:    "alice@example.com",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

// 自分自身のユーザー名の維持は重複と見なされないことを検証
func TestUpdateProfile_OwnUsernameKept(t *testing.T) {
	repo := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*model.User, error) {
			t.Fatal("unchanged username should not be checked")
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), testActor(), validation.ProfileInput{
		Username: "alice",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
}

// ロールがプロフィール更新で変わらないことを検証
func TestUpdateProfile_RoleUnchanged(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepo{
		updateProfileFn: func(_ context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), testActor(), validation.ProfileInput{
		Username: "alice",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if saved.Role != model.RoleAuthor {
		t.Errorf("role = %q, want unchanged %q", saved.Role, model.RoleAuthor)
	}
}

// 検証エラーが全フィールド分まとめて返ることを検証
func TestUpdateProfile_ValidationErrors(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.UpdateProfile(context.Background(), testActor(), validation.ProfileInput{
		Username: "x",
		Email:    "bad",
		Website:  "not a url",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(apiErr.Errors) < 3 {
		t.Errorf("expected errors for username, email and website, got %v", apiErr.Errors)
	}
}

// ユーザー一覧が取得できることを検証
func TestList(t *testing.T) {
	repo := &mockUserRepo{
		listFn: func(_ context.Context) ([]*model.User, error) {
			return []*model.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
	}
	svc := NewService(repo)

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len = %d, want 2", len(users))
	}
}
