// Package tag はタグの閲覧と一括管理のビジネスロジックを提供する。
//
// タグは独立したテーブルを持たず、記事のタグ配列内の文字列としてのみ
// 存在する。一括リネームと削除は対象の全記事に単一のUPDATE文で適用される。
package tag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// popularTagLimit は人気タグ一覧の件数。
const popularTagLimit = 10

// maxTagLength はタグ1件の最大文字数。
const maxTagLength = 30

// Detail はタグと所属する公開記事の一覧。
type Detail struct {
	Tag      string
	Articles []*repository.PostListItem
}

// Service はタグに関するビジネスロジックを提供する。
type Service struct {
	postRepo repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository) *Service {
	return &Service{postRepo: postRepo}
}

// ListCounts は公開記事のタグ別記事数を件数降順で全件返す。
func (s *Service) ListCounts(ctx context.Context) ([]*model.TagCount, error) {
	counts, err := s.postRepo.ListTagCounts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag counts: %w", err)
	}
	return counts, nil
}

// ListPopular は記事数上位のタグを返す。
func (s *Service) ListPopular(ctx context.Context) ([]*model.TagCount, error) {
	counts, err := s.postRepo.ListTagCounts(ctx, popularTagLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular tags: %w", err)
	}
	return counts, nil
}

// GetByTag は指定タグを含む公開記事の一覧を返す。
// どの記事にも存在しないタグは未検出として扱う。
func (s *Service) GetByTag(ctx context.Context, tag string) (*Detail, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, model.NewNotFoundError("タグ")
	}

	articles, err := s.postRepo.ListPublishedByTag(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, model.NewNotFoundError("タグ")
	}

	return &Detail{Tag: tag, Articles: articles}, nil
}

// Rename はタグを全記事にわたって一括リネームする。
// リネーム元が存在しない場合は404、リネーム先が既に存在する場合は
// 409を返す。変更した記事数を返す。
func (s *Service) Rename(ctx context.Context, oldTag, newTag string) (int64, error) {
	oldTag = strings.TrimSpace(oldTag)
	newTag = strings.TrimSpace(newTag)

	if newTag == "" || utf8.RuneCountInString(newTag) > maxTagLength {
		return 0, model.NewValidationError([]string{
			fmt.Sprintf("tag: タグは1〜%d文字で入力してください。", maxTagLength),
		})
	}
	if oldTag == newTag {
		return 0, model.NewValidationError([]string{"tag: リネーム前後のタグが同じです。"})
	}

	exists, err := s.postRepo.TagExists(ctx, oldTag)
	if err != nil {
		return 0, fmt.Errorf("failed to check source tag: %w", err)
	}
	if !exists {
		return 0, model.NewNotFoundError("タグ")
	}

	targetExists, err := s.postRepo.TagExists(ctx, newTag)
	if err != nil {
		return 0, fmt.Errorf("failed to check target tag: %w", err)
	}
	if targetExists {
		return 0, model.NewConflictError("リネーム先のタグが既に存在します。")
	}

	modified, err := s.postRepo.RenameTag(ctx, oldTag, newTag)
	if err != nil {
		return 0, fmt.Errorf("failed to rename tag: %w", err)
	}
	// 存在確認後の更新0件は並行削除との競合であり、予期しない状態
	if modified == 0 {
		return 0, fmt.Errorf("tag %q disappeared during rename", oldTag)
	}

	slog.Info("tag renamed",
		slog.String("old", oldTag),
		slog.String("new", newTag),
		slog.Int64("modified", modified),
	)
	return modified, nil
}

// Remove はタグを全記事のタグ配列から一括削除する。
// 存在しないタグは404を返す。変更した記事数を返す。
func (s *Service) Remove(ctx context.Context, tag string) (int64, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, model.NewNotFoundError("タグ")
	}

	exists, err := s.postRepo.TagExists(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("failed to check tag: %w", err)
	}
	if !exists {
		return 0, model.NewNotFoundError("タグ")
	}

	modified, err := s.postRepo.RemoveTag(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("failed to remove tag: %w", err)
	}

	slog.Info("tag removed", slog.String("tag", tag), slog.Int64("modified", modified))
	return modified, nil
}
