// Package category はカテゴリの管理と公開閲覧のビジネスロジックを提供する。
package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/content"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/validation"
)

// Detail はカテゴリと所属する公開記事の一覧。
type Detail struct {
	Category *model.Category
	Articles []*repository.PostListItem
}

// Service はカテゴリに関するビジネスロジックを提供する。
type Service struct {
	categoryRepo repository.CategoryRepository
	postRepo     repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(categoryRepo repository.CategoryRepository, postRepo repository.PostRepository) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		postRepo:     postRepo,
	}
}

// ListWithCounts は全カテゴリを公開記事数付きで記事数降順で返す。
// 記事数は保存フィールドではなく毎回導出されるため、記事の増減に常に追随する。
func (s *Service) ListWithCounts(ctx context.Context) ([]*model.CategoryWithCount, error) {
	results, err := s.categoryRepo.ListWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return results, nil
}

// GetBySlug はスラグでカテゴリを取得し、所属する公開記事を添えて返す。
// 記事が1件もないカテゴリも空の記事一覧付きで成功として返す。
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ")
	}

	articles, err := s.postRepo.ListPublishedByCategory(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category articles: %w", err)
	}

	return &Detail{Category: category, Articles: articles}, nil
}

// List は全カテゴリを名前順で返す。管理画面用。
func (s *Service) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create はカテゴリを作成する。スラグは名前から導出される。
func (s *Service) Create(ctx context.Context, in validation.CategoryInput) (*model.Category, error) {
	if errs := validation.Category(in); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	existing, err := s.categoryRepo.FindByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("同名のカテゴリが既に存在します。")
	}

	featuredImage := in.FeaturedImage
	if featuredImage == "" {
		featuredImage = model.DefaultCategoryImage
	}

	now := time.Now()
	category := &model.Category{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Slug:          content.Slug(in.Name),
		Description:   in.Description,
		FeaturedImage: featuredImage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("同名のカテゴリが既に存在します。")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("category created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)
	return category, nil
}

// Update はカテゴリを更新する。スラグは名前が変わった場合のみ再計算される。
func (s *Service) Update(ctx context.Context, id string, in validation.CategoryInput) (*model.Category, error) {
	if !validation.IsValidID(id) {
		return nil, model.NewValidationError([]string{"id: カテゴリIDの形式が正しくありません。"})
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return nil, model.NewNotFoundError("カテゴリ")
	}

	if errs := validation.Category(in); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	if in.Name != category.Name {
		existing, err := s.categoryRepo.FindByName(ctx, in.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check category name: %w", err)
		}
		if existing != nil && existing.ID != category.ID {
			return nil, model.NewConflictError("同名のカテゴリが既に存在します。")
		}
		category.Name = in.Name
		category.Slug = content.Slug(in.Name)
	}

	category.Description = in.Description
	if in.FeaturedImage != "" {
		category.FeaturedImage = in.FeaturedImage
	}
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("同名のカテゴリが既に存在します。")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	slog.Info("category updated", slog.String("category_id", category.ID))
	return category, nil
}

// Delete はカテゴリを削除する。
// 記事側のカテゴリ参照は削除後に未解決の参照として残り、参照展開時に
// 単に読み飛ばされる。
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validation.IsValidID(id) {
		return model.NewValidationError([]string{"id: カテゴリIDの形式が正しくありません。"})
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil {
		return model.NewNotFoundError("カテゴリ")
	}

	if err := s.categoryRepo.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	slog.Info("category deleted", slog.String("category_id", category.ID))
	return nil
}
