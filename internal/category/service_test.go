package category

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/validation"
)

// --- モック定義 ---

type mockCategoryRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.Category, error)
	findBySlugFn func(ctx context.Context, slug string) (*model.Category, error)
	findByNameFn func(ctx context.Context, name string) (*model.Category, error)
	createFn     func(ctx context.Context, category *model.Category) error
	updateFn     func(ctx context.Context, category *model.Category) error
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	if m.findBySlugFn != nil {
		return m.findBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	if m.findByNameFn != nil {
		return m.findByNameFn(ctx, name)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCategoryRepo) List(_ context.Context) ([]*model.Category, error) {
	return nil, nil
}

func (m *mockCategoryRepo) ListByIDs(_ context.Context, _ []string) ([]*model.Category, error) {
	return nil, nil
}

func (m *mockCategoryRepo) ListWithCounts(_ context.Context) ([]*model.CategoryWithCount, error) {
	return nil, nil
}

type mockPostRepo struct {
	listByCategoryFn func(ctx context.Context, categoryID string) ([]*repository.PostListItem, error)
}

func (m *mockPostRepo) FindByID(_ context.Context, _ string) (*model.Post, error)   { return nil, nil }
func (m *mockPostRepo) FindBySlug(_ context.Context, _ string) (*model.Post, error) { return nil, nil }
func (m *mockPostRepo) SlugExists(_ context.Context, _ string) (bool, error)        { return false, nil }
func (m *mockPostRepo) Create(_ context.Context, _ *model.Post) error               { return nil }
func (m *mockPostRepo) Update(_ context.Context, _ *model.Post) error               { return nil }
func (m *mockPostRepo) Delete(_ context.Context, _ string) error                    { return nil }

func (m *mockPostRepo) ListAll(_ context.Context) ([]*repository.PostListItem, error) {
	return nil, nil
}

func (m *mockPostRepo) ListPublished(_ context.Context, _, _ int) ([]*repository.PostListItem, error) {
	return nil, nil
}

func (m *mockPostRepo) ListPublishedByCategory(ctx context.Context, categoryID string) ([]*repository.PostListItem, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, categoryID)
	}
	return nil, nil
}

func (m *mockPostRepo) ListPublishedByTag(_ context.Context, _ string) ([]*repository.PostListItem, error) {
	return nil, nil
}

func (m *mockPostRepo) ToggleLike(_ context.Context, _, _ string) (*repository.LikeResult, error) {
	return nil, nil
}

func (m *mockPostRepo) IncrementViews(_ context.Context, _ string) error { return nil }

func (m *mockPostRepo) ListTagCounts(_ context.Context, _ int) ([]*model.TagCount, error) {
	return nil, nil
}

func (m *mockPostRepo) TagExists(_ context.Context, _ string) (bool, error) { return false, nil }
func (m *mockPostRepo) RenameTag(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}
func (m *mockPostRepo) RemoveTag(_ context.Context, _ string) (int64, error) { return 0, nil }

// --- compile-time interface checks ---
var _ repository.CategoryRepository = (*mockCategoryRepo)(nil)
var _ repository.PostRepository = (*mockPostRepo)(nil)

const testCategoryID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

// --- テスト ---

// 作成時に名前からスラグが導出されることを検証
func TestCreate_DerivesSlug(t *testing.T) {
	var created *model.Category
	repo := &mockCategoryRepo{
		createFn: func(_ context.Context, c *model.Category) error {
			created = c
			return nil
		},
	}
	svc := NewService(repo, &mockPostRepo{})

	_, err := svc.Create(context.Background(), validation.CategoryInput{Name: "Web Development"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Slug != "web-development" {
		t.Errorf("slug = %q, want %q", created.Slug, "web-development")
	}
	if created.FeaturedImage != model.DefaultCategoryImage {
		t.Errorf("featuredImage = %q, want default", created.FeaturedImage)
	}
}

// 同名カテゴリの作成が409になることを検証
func TestCreate_DuplicateName(t *testing.T) {
	repo := &mockCategoryRepo{
		findByNameFn: func(_ context.Context, _ string) (*model.Category, error) {
			return &model.Category{ID: "existing"}, nil
		},
	}
	svc := NewService(repo, &mockPostRepo{})

	_, err := svc.Create(context.Background(), validation.CategoryInput{Name: "Web"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

// 名前変更時のみスラグが再計算されることを検証
func TestUpdate_SlugOnlyOnNameChange(t *testing.T) {
	existing := &model.Category{ID: testCategoryID, Name: "Web", Slug: "web"}
	var updated *model.Category
	repo := &mockCategoryRepo{
		findByIDFn: func(_ context.Context, _ string) (*model.Category, error) {
			cp := *existing
			return &cp, nil
		},
		updateFn: func(_ context.Context, c *model.Category) error {
			updated = c
			return nil
		},
	}
	svc := NewService(repo, &mockPostRepo{})

	if _, err := svc.Update(context.Background(), testCategoryID, validation.CategoryInput{Name: "Web", Description: "updated"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Slug != "web" {
		t.Errorf("slug changed without name change: %q", updated.Slug)
	}

	if _, err := svc.Update(context.Background(), testCategoryID, validation.CategoryInput{Name: "Cloud Native"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Slug != "cloud-native" {
		t.Errorf("slug = %q, want %q", updated.Slug, "cloud-native")
	}
}

// 記事ゼロ件のカテゴリ詳細が空一覧付きの成功になることを検証
func TestGetBySlug_EmptyCategory(t *testing.T) {
	repo := &mockCategoryRepo{
		findBySlugFn: func(_ context.Context, slug string) (*model.Category, error) {
			return &model.Category{ID: testCategoryID, Name: "Web", Slug: slug}, nil
		},
	}
	svc := NewService(repo, &mockPostRepo{})

	detail, err := svc.GetBySlug(context.Background(), "web")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if detail.Category.ID != testCategoryID {
		t.Errorf("category ID = %q, want %q", detail.Category.ID, testCategoryID)
	}
	if len(detail.Articles) != 0 {
		t.Errorf("articles = %v, want empty", detail.Articles)
	}
}

// 存在しないスラグが404になることを検証
func TestGetBySlug_NotFound(t *testing.T) {
	svc := NewService(&mockCategoryRepo{}, &mockPostRepo{})

	_, err := svc.GetBySlug(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

// 削除対象が存在しない場合に404になることを検証
func TestDelete_NotFound(t *testing.T) {
	svc := NewService(&mockCategoryRepo{}, &mockPostRepo{})

	err := svc.Delete(context.Background(), testCategoryID)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
