// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/blogman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は小文字正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィール項目（ユーザー名・メール・自己紹介・
	// アバター・ソーシャルリンク）を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// RecordLoginFailure はログイン失敗を記録する。
	// 試行回数を更新し、閾値超過時はlockedUntilを設定する。
	RecordLoginFailure(ctx context.Context, id string, attempts int, lockedUntil *time.Time) error

	// RecordLoginSuccess はログイン成功を記録する。
	// 試行回数をリセットし、ロックを解除し、最終ログイン日時を更新する。
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error

	// List は全ユーザーを作成日時降順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// ClearExpiredLocks は期限の切れたアカウントロックを解除し、
	// 試行回数をリセットする。解除した件数を返す。
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// FindBySlug はスラグでカテゴリを検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)

	// FindByName は名前でカテゴリを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Category, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリを更新する。
	Update(ctx context.Context, category *model.Category) error

	// Delete は指定IDのカテゴリを削除する。
	Delete(ctx context.Context, id string) error

	// List は全カテゴリを名前順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// ListByIDs は指定ID群のカテゴリを返す。参照展開に使用する。
	ListByIDs(ctx context.Context, ids []string) ([]*model.Category, error)

	// ListWithCounts は全カテゴリを公開記事数と最新公開日時付きで、
	// 記事数降順で返す。記事数は保存フィールドではなく毎回導出する。
	ListWithCounts(ctx context.Context) ([]*model.CategoryWithCount, error)
}

// PostListItem は記事と著者情報を結合した一覧用モデル。
// カテゴリ参照の展開はCategoryRepository.ListByIDsと組み合わせて行う。
type PostListItem struct {
	model.Post
	AuthorUsername string
	AuthorAvatar   string
}

// LikeResult はいいねトグルの結果。
type LikeResult struct {
	Liked bool // トグル後の状態
	Count int  // トグル後のいいね数
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindBySlug はスラグで記事を検索する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)

	// SlugExists はスラグが既に存在するかどうかを返す。
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Create は記事を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は記事を更新する。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの記事を削除する。
	Delete(ctx context.Context, id string) error

	// ListAll は全記事を著者情報付きで作成日時降順で返す。管理画面用。
	ListAll(ctx context.Context) ([]*PostListItem, error)

	// ListPublished は公開記事を著者情報付きで公開日時降順で返す。
	ListPublished(ctx context.Context, limit, offset int) ([]*PostListItem, error)

	// ListPublishedByCategory は指定カテゴリを参照する公開記事を
	// 公開日時降順で返す。
	ListPublishedByCategory(ctx context.Context, categoryID string) ([]*PostListItem, error)

	// ListPublishedByTag は指定タグを含む公開記事を公開日時降順で返す。
	ListPublishedByTag(ctx context.Context, tag string) ([]*PostListItem, error)

	// ToggleLike はmeta.likesにおけるユーザーIDの所属を単一の原子的な
	// 更新文でトグルする。読み取り後書き込みの競合を許さない。
	// 記事が存在しない場合はnilを返す。
	ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error)

	// IncrementViews は閲覧数を原子的に加算する。
	IncrementViews(ctx context.Context, postID string) error

	// ListTagCounts は公開記事のタグ別記事数を件数降順で返す。
	// limitが0以下の場合は全件を返す。
	ListTagCounts(ctx context.Context, limit int) ([]*model.TagCount, error)

	// TagExists は指定タグ値がいずれかの記事に存在するかどうかを返す。
	TagExists(ctx context.Context, tag string) (bool, error)

	// RenameTag は指定タグ値を含む全記事のタグ配列内の該当要素のみを
	// 置換する。変更した記事数を返す。単一のUPDATE文で実行される。
	RenameTag(ctx context.Context, oldTag, newTag string) (int64, error)

	// RemoveTag は指定タグ値を全記事のタグ配列から取り除く。
	// 変更した記事数を返す。
	RemoveTag(ctx context.Context, tag string) (int64, error)
}

// IsUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
// サービス層で409 Conflictへの変換に使用する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
