package tag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// --- モック定義 ---

type mockPostRepo struct {
	listByTagFn     func(ctx context.Context, tag string) ([]*repository.PostListItem, error)
	listTagCountsFn func(ctx context.Context, limit int) ([]*model.TagCount, error)
	tagExistsFn     func(ctx context.Context, tag string) (bool, error)
	renameTagFn     func(ctx context.Context, oldTag, newTag string) (int64, error)
	removeTagFn     func(ctx context.Context, tag string) (int64, error)
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

func (m *mockPostRepo) ListPublishedByCategory(_ context.Context, _ string) ([]*repository.PostListItem, error) {
	return nil, nil
}

func (m *mockPostRepo) ListPublishedByTag(ctx context.Context, tag string) ([]*repository.PostListItem, error) {
	if m.listByTagFn != nil {
		return m.listByTagFn(ctx, tag)
	}
	return nil, nil
}

func (m *mockPostRepo) ToggleLike(_ context.Context, _, _ string) (*repository.LikeResult, error) {
	return nil, nil
}

func (m *mockPostRepo) IncrementViews(_ context.Context, _ string) error { return nil }

func (m *mockPostRepo) ListTagCounts(ctx context.Context, limit int) ([]*model.TagCount, error) {
	if m.listTagCountsFn != nil {
		return m.listTagCountsFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPostRepo) TagExists(ctx context.Context, tag string) (bool, error) {
	if m.tagExistsFn != nil {
		return m.tagExistsFn(ctx, tag)
	}
	return false, nil
}

func (m *mockPostRepo) RenameTag(ctx context.Context, oldTag, newTag string) (int64, error) {
	if m.renameTagFn != nil {
		return m.renameTagFn(ctx, oldTag, newTag)
	}
	return 0, nil
}

func (m *mockPostRepo) RemoveTag(ctx context.Context, tag string) (int64, error) {
	if m.removeTagFn != nil {
		return m.removeTagFn(ctx, tag)
	}
	return 0, nil
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

// --- テスト ---

// 人気タグ一覧が上限件数で取得されることを検証
func TestListPopular_UsesLimit(t *testing.T) {
	var gotLimit int
	repo := &mockPostRepo{
		listTagCountsFn: func(_ context.Context, limit int) ([]*model.TagCount, error) {
			gotLimit = limit
			return []*model.TagCount{{Tag: "go", Count: 5}}, nil
		},
	}
	svc := NewService(repo)

	counts, err := svc.ListPopular(context.Background())
	if err != nil {
		t.Fatalf("ListPopular() error = %v", err)
	}
	if gotLimit != popularTagLimit {
		t.Errorf("limit = %d, want %d", gotLimit, popularTagLimit)
	}
	if len(counts) != 1 || counts[0].Tag != "go" {
		t.Errorf("counts = %v", counts)
	}
}

// どの記事にも存在しないタグの詳細が404になることを検証
func TestGetByTag_NotFound(t *testing.T) {
	svc := NewService(&mockPostRepo{})

	_, err := svc.GetByTag(context.Background(), "ghost")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

// リネーム元が存在しない場合に404になることを検証
func TestRename_SourceMissing(t *testing.T) {
	svc := NewService(&mockPostRepo{})

	_, err := svc.Rename(context.Background(), "ghost", "golang")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

// リネーム先が既に存在する場合に409になることを検証
func TestRename_TargetExists(t *testing.T) {
	repo := &mockPostRepo{
		tagExistsFn: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Rename(context.Background(), "go", "golang")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

// リネームが変更記事数を返すことを検証
func TestRename_ReturnsModifiedCount(t *testing.T) {
	repo := &mockPostRepo{
		tagExistsFn: func(_ context.Context, tag string) (bool, error) {
			return tag == "go", nil
		},
		renameTagFn: func(_ context.Context, oldTag, newTag string) (int64, error) {
			if oldTag != "go" || newTag != "golang" {
				t.Errorf("rename args = %q -> %q", oldTag, newTag)
			}
			return 7, nil
		},
	}
	svc := NewService(repo)

	modified, err := svc.Rename(context.Background(), "go", "golang")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if modified != 7 {
		t.Errorf("modified = %d, want 7", modified)
	}
}

// リネーム先の長さ制限がバイト数ではなく文字数で判定されることを検証
func TestRename_TargetLengthCountsRunes(t *testing.T) {
	repo := &mockPostRepo{
		tagExistsFn: func(_ context.Context, tag string) (bool, error) {
			return tag == "go", nil
		},
		renameTagFn: func(_ context.Context, _, _ string) (int64, error) {
			return 3, nil
		},
	}
	svc := NewService(repo)

	// 30文字の日本語タグ（90バイト）は許容される
	okTag := strings.Repeat("あ", 30)
	if _, err := svc.Rename(context.Background(), "go", okTag); err != nil {
		t.Fatalf("30-rune multibyte target should pass, got %v", err)
	}

	// 31文字は超過
	_, err := svc.Rename(context.Background(), "go", okTag+"あ")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindValidation {
		t.Fatalf("expected validation error for 31-rune target, got %v", err)
	}
}

// 前後のタグが同一のリネームが400になることを検証
func TestRename_SameTag(t *testing.T) {
	svc := NewService(&mockPostRepo{})

	_, err := svc.Rename(context.Background(), "go", " go ")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// タグ削除が変更記事数を返すことを検証
func TestRemove_ReturnsModifiedCount(t *testing.T) {
	repo := &mockPostRepo{
		tagExistsFn: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
		removeTagFn: func(_ context.Context, _ string) (int64, error) {
			return 4, nil
		},
	}
	svc := NewService(repo)

	modified, err := svc.Remove(context.Background(), "deprecated")
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if modified != 4 {
		t.Errorf("modified = %d, want 4", modified)
	}
}

// 存在しないタグの削除が404になることを検証
func TestRemove_NotFound(t *testing.T) {
	svc := NewService(&mockPostRepo{})

	_, err := svc.Remove(context.Background(), "ghost")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
