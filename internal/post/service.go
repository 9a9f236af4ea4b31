// Package post は記事の公開・管理に関するビジネスロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/content"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
	"github.com/hitoshi/blogman/internal/validation"
)

// 一覧取得のページングの既定値と上限。
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Detail は記事詳細と参照展開済みの関連情報。
type Detail struct {
	Post       *model.Post
	Author     *model.User
	Categories []*model.Category
}

// Service は記事に関するビジネスロジックを提供する。
type Service struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		sanitizer:    sanitizer,
	}
}

// ListPublished は公開記事を公開日時降順で返す。
// limitは範囲外の場合に既定値へ丸められる。
func (s *Service) ListPublished(ctx context.Context, limit, offset int) ([]*repository.PostListItem, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.postRepo.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	return items, nil
}

// GetPublished は公開記事の詳細を返し、閲覧数を加算する。
// 下書きとアーカイブは未検出として扱う。
func (s *Service) GetPublished(ctx context.Context, id string) (*Detail, error) {
	if !validation.IsValidID(id) {
		return nil, model.NewValidationError([]string{"id: 記事IDの形式が正しくありません。"})
	}

	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil || post.Status != model.PostStatusPublished {
		return nil, model.NewNotFoundError("記事")
	}

	// 閲覧数の加算失敗は記事の取得を妨げない
	if err := s.postRepo.IncrementViews(ctx, post.ID); err != nil {
		slog.Warn("failed to increment views", slog.String("post_id", post.ID), slog.Any("error", err))
	} else {
		post.Meta.Views++
	}

	return s.expand(ctx, post)
}

// expand は記事の著者とカテゴリ参照を展開する。
func (s *Service) expand(ctx context.Context, post *model.Post) (*Detail, error) {
	author, err := s.userRepo.FindByID(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	categories, err := s.categoryRepo.ListByIDs(ctx, post.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to expand categories: %w", err)
	}

	return &Detail{Post: post, Author: author, Categories: categories}, nil
}

// ToggleLike はいいね状態をトグルし、トグル後の状態と件数を返す。
// IDの構文検証を通過してからストレージへ到達する。
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (*repository.LikeResult, error) {
	if !validation.IsValidID(postID) {
		return nil, model.NewValidationError([]string{"id: 記事IDの形式が正しくありません。"})
	}

	result, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	if result == nil {
		return nil, model.NewNotFoundError("記事")
	}
	return result, nil
}

// ListForActor は管理画面用の記事一覧を返す。
// 管理者は全記事、投稿者は自身の記事のみを取得する。
func (s *Service) ListForActor(ctx context.Context, actor *model.User) ([]*repository.PostListItem, error) {
	items, err := s.postRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if actor.Role == model.RoleAdmin {
		return items, nil
	}

	own := make([]*repository.PostListItem, 0, len(items))
	for _, item := range items {
		if item.AuthorID == actor.ID {
			own = append(own, item)
		}
	}
	return own, nil
}

// GetForActor は管理画面用に記事を取得する。
// 投稿者は自身の記事のみ閲覧できる。
func (s *Service) GetForActor(ctx context.Context, actor *model.User, id string) (*Detail, error) {
	post, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, post)
}

// Create は記事を作成する。
// スラグはタイトルから導出し、読了時間は本文から導出する。
// publishedで作成された場合は公開日時を設定する。
func (s *Service) Create(ctx context.Context, actor *model.User, in validation.PostInput) (*model.Post, error) {
	if errs := validation.Post(in); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	if err := s.checkCategories(ctx, in.CategoryIDs); err != nil {
		return nil, err
	}

	slug := content.Slug(in.Title)
	exists, err := s.postRepo.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, model.NewConflictError("同じタイトルから導出されるスラグの記事が既に存在します。")
	}

	status := model.PostStatus(in.Status)
	if in.Status == "" {
		status = model.PostStatusDraft
	}

	sanitized := s.sanitizer.Sanitize(in.Content)
	now := time.Now()

	post := &model.Post{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Slug:          slug,
		Excerpt:       in.Excerpt,
		Content:       sanitized,
		CategoryIDs:   in.CategoryIDs,
		Tags:          in.Tags,
		AuthorID:      actor.ID,
		Status:        status,
		FeaturedImage: in.FeaturedImage,
		ReadTime:      content.ReadTime(sanitized),
		IsFeatured:    in.IsFeatured,
		SEO: model.PostSEO{
			Title:       in.SEOTitle,
			Description: in.SEODescription,
			Keywords:    in.SEOKeywords,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == model.PostStatusPublished {
		post.PublishedAt = &now
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("同じタイトルから導出されるスラグの記事が既に存在します。")
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", actor.ID),
		slog.String("status", string(post.Status)),
	)
	return post, nil
}

// Update は記事を更新する。
// スラグはタイトルが変わった場合のみ再計算される。公開日時は
// publishedへの遷移時のみ設定され、以降の遷移では変更されない。
func (s *Service) Update(ctx context.Context, actor *model.User, id string, in validation.PostInput) (*model.Post, error) {
	post, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if errs := validation.Post(in); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	if err := s.checkCategories(ctx, in.CategoryIDs); err != nil {
		return nil, err
	}

	if in.Title != post.Title {
		slug := content.Slug(in.Title)
		if slug != post.Slug {
			exists, err := s.postRepo.SlugExists(ctx, slug)
			if err != nil {
				return nil, fmt.Errorf("failed to check slug: %w", err)
			}
			if exists {
				return nil, model.NewConflictError("同じタイトルから導出されるスラグの記事が既に存在します。")
			}
			post.Slug = slug
		}
		post.Title = in.Title
	}

	status := model.PostStatus(in.Status)
	if in.Status == "" {
		status = post.Status
	}
	if status == model.PostStatusPublished && post.Status != model.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	post.Status = status

	sanitized := s.sanitizer.Sanitize(in.Content)
	post.Excerpt = in.Excerpt
	post.Content = sanitized
	post.ReadTime = content.ReadTime(sanitized)
	post.CategoryIDs = in.CategoryIDs
	post.Tags = in.Tags
	post.FeaturedImage = in.FeaturedImage
	post.IsFeatured = in.IsFeatured
	post.SEO = model.PostSEO{
		Title:       in.SEOTitle,
		Description: in.SEODescription,
		Keywords:    in.SEOKeywords,
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("同じタイトルから導出されるスラグの記事が既に存在します。")
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	slog.Info("post updated", slog.String("post_id", post.ID), slog.String("actor_id", actor.ID))
	return post, nil
}

// Delete は記事を削除する。
func (s *Service) Delete(ctx context.Context, actor *model.User, id string) error {
	post, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	slog.Info("post deleted", slog.String("post_id", post.ID), slog.String("actor_id", actor.ID))
	return nil
}

// findOwned は記事を取得し、操作者の権限を確認する。
// 管理者は全記事、投稿者は自身の記事のみ操作できる。
func (s *Service) findOwned(ctx context.Context, actor *model.User, id string) (*model.Post, error) {
	if !validation.IsValidID(id) {
		return nil, model.NewValidationError([]string{"id: 記事IDの形式が正しくありません。"})
	}

	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError("記事")
	}

	if actor.Role != model.RoleAdmin && post.AuthorID != actor.ID {
		return nil, model.NewForbiddenError()
	}
	return post, nil
}

// checkCategories は参照先カテゴリが全て存在することを確認する。
func (s *Service) checkCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	categories, err := s.categoryRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check categories: %w", err)
	}
	if len(categories) != len(ids) {
		return model.NewValidationError([]string{"categories: 存在しないカテゴリが含まれています。"})
	}
	return nil
}
