// Package feedimport は外部RSS/Atomフィードからの記事インポートを提供する。
//
// 管理者が指定したフィードURLをSSRF防止付きクライアントで取得し、
// gofeedでパースした各記事をサニタイズ済みの下書き記事として取り込む。
// スラグが既存記事と衝突する記事は読み飛ばされるため、同じフィードを
// 繰り返しインポートしても重複は生じない。
package feedimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/blogman/internal/content"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

// maxImportItems は1回のインポートで取り込む記事数の上限。
const maxImportItems = 50

// maxExcerptLength はフィード記事から導出する抜粋の最大文字数。
const maxExcerptLength = 300

// Input はインポートリクエストの入力。
type Input struct {
	URL  string        `json:"url"`
	Tags model.TagList `json:"tags"`
}

// Result はインポートの結果集計。
type Result struct {
	FeedTitle string
	Imported  int
	Skipped   int
}

// Service はフィードインポートのビジネスロジックを提供する。
type Service struct {
	postRepo    repository.PostRepository
	sanitizer   security.ContentSanitizerService
	ssrfGuard   security.SSRFGuardService
	timeout     time.Duration
	maxBodySize int64
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
	timeout time.Duration,
	maxBodySize int64,
) *Service {
	return &Service{
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Import はフィードを取得し、各記事を操作者名義の下書き記事として取り込む。
func (s *Service) Import(ctx context.Context, actor *model.User, in Input) (*Result, error) {
	if err := s.ssrfGuard.ValidateURL(in.URL); err != nil {
		return nil, model.NewValidationError([]string{fmt.Sprintf("url: 取得できないURLです: %s", err)})
	}

	client := s.ssrfGuard.NewSafeClient(s.timeout, s.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return nil, model.NewValidationError([]string{"url: URLの形式が正しくありません。"})
	}
	req.Header.Set("User-Agent", "Blogman/1.0 Feed Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, model.NewValidationError([]string{fmt.Sprintf("url: フィードを取得できませんでした: %s", err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewValidationError([]string{
			fmt.Sprintf("url: フィードの取得がHTTPステータス %d で失敗しました。", resp.StatusCode),
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, model.NewValidationError([]string{"url: フィードの解析に失敗しました。"})
	}

	result := &Result{FeedTitle: parsed.Title}

	items := parsed.Items
	if len(items) > maxImportItems {
		items = items[:maxImportItems]
	}

	for _, item := range items {
		if item == nil || item.Title == "" {
			result.Skipped++
			continue
		}

		imported, err := s.importItem(ctx, actor, item, in.Tags)
		if err != nil {
			return nil, err
		}
		if imported {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	slog.Info("feed imported",
		slog.String("url", in.URL),
		slog.String("actor_id", actor.ID),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// importItem はフィード記事1件を下書き記事として保存する。
// スラグが既存記事と衝突する場合は保存せずfalseを返す。
func (s *Service) importItem(ctx context.Context, actor *model.User, item *gofeed.Item, tags model.TagList) (bool, error) {
	slug := content.Slug(item.Title)
	if slug == "" {
		return false, nil
	}

	exists, err := s.postRepo.SlugExists(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return false, nil
	}

	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	sanitized := s.sanitizer.Sanitize(raw)

	// バイト単位の切り詰めはマルチバイト文字を破壊するため文字数で数える
	excerpt := content.PlainText(item.Description)
	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		excerpt = string([]rune(excerpt)[:maxExcerptLength])
	}

	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		Title:     item.Title,
		Slug:      slug,
		Excerpt:   excerpt,
		Content:   sanitized,
		Tags:      tags,
		AuthorID:  actor.ID,
		Status:    model.PostStatusDraft,
		ReadTime:  content.ReadTime(sanitized),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		// 並行インポートとのスラグ衝突は読み飛ばしとして扱う
		if repository.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create imported post: %w", err)
	}
	return true, nil
}
