package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
// カテゴリ参照・タグ・いいねはPostgreSQLの配列型で保持する。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns はpostsテーブルのSELECT列リスト。
const postColumns = `id, title, slug, excerpt, content, category_ids, tags,
	author_id, status, published_at, featured_image, read_time, is_featured,
	liked_by, views, comment_count, seo_title, seo_description, seo_keywords,
	created_at, updated_at`

// scanPost は1行をmodel.Postに読み取る。
func scanPost(row interface{ Scan(...any) error }) (*model.Post, error) {
	p := &model.Post{}
	var publishedAt sql.NullTime
	var categoryIDs, tags, likedBy, seoKeywords pq.StringArray

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content,
		&categoryIDs, &tags,
		&p.AuthorID, &p.Status, &publishedAt,
		&p.FeaturedImage, &p.ReadTime, &p.IsFeatured,
		&likedBy, &p.Meta.Views, &p.Meta.CommentCount,
		&p.SEO.Title, &p.SEO.Description, &seoKeywords,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CategoryIDs = categoryIDs
	p.Tags = tags
	p.Meta.LikedBy = likedBy
	p.SEO.Keywords = seoKeywords
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return p, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return p, nil
}

// FindBySlug はスラグで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists はスラグが既に存在するかどうかを返す。
func (r *PostgresPostRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return exists, nil
}

// Create は記事を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, slug, excerpt, content, category_ids, tags,
		     author_id, status, published_at, featured_image, read_time, is_featured,
		     liked_by, views, comment_count, seo_title, seo_description, seo_keywords,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		     $14, $15, $16, $17, $18, $19, $20, $21)`,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content,
		pq.Array(post.CategoryIDs), pq.Array(post.Tags),
		post.AuthorID, post.Status, post.PublishedAt,
		post.FeaturedImage, post.ReadTime, post.IsFeatured,
		pq.Array(post.Meta.LikedBy), post.Meta.Views, post.Meta.CommentCount,
		post.SEO.Title, post.SEO.Description, pq.Array(post.SEO.Keywords),
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は記事を更新する。いいね・閲覧数は専用の原子的操作で更新するため
// ここでは変更しない。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $2, slug = $3, excerpt = $4, content = $5,
		     category_ids = $6, tags = $7, status = $8, published_at = $9,
		     featured_image = $10, read_time = $11, is_featured = $12,
		     seo_title = $13, seo_description = $14, seo_keywords = $15,
		     updated_at = $16
		 WHERE id = $1`,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content,
		pq.Array(post.CategoryIDs), pq.Array(post.Tags),
		post.Status, post.PublishedAt,
		post.FeaturedImage, post.ReadTime, post.IsFeatured,
		post.SEO.Title, post.SEO.Description, pq.Array(post.SEO.Keywords),
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", post.ID)
	}
	return nil
}

// Delete は指定IDの記事を削除する。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// listItemColumns は一覧用の著者結合済みSELECT列リスト。
const listItemColumns = `p.id, p.title, p.slug, p.excerpt, p.content,
	p.category_ids, p.tags, p.author_id, p.status, p.published_at,
	p.featured_image, p.read_time, p.is_featured, p.liked_by, p.views,
	p.comment_count, p.seo_title, p.seo_description, p.seo_keywords,
	p.created_at, p.updated_at, u.username, u.avatar_url`

// scanPostListItem は著者結合済みの1行をPostListItemに読み取る。
func scanPostListItem(rows *sql.Rows) (*PostListItem, error) {
	item := &PostListItem{}
	var publishedAt sql.NullTime
	var categoryIDs, tags, likedBy, seoKeywords pq.StringArray

	err := rows.Scan(
		&item.ID, &item.Title, &item.Slug, &item.Excerpt, &item.Content,
		&categoryIDs, &tags,
		&item.AuthorID, &item.Status, &publishedAt,
		&item.FeaturedImage, &item.ReadTime, &item.IsFeatured,
		&likedBy, &item.Meta.Views, &item.Meta.CommentCount,
		&item.SEO.Title, &item.SEO.Description, &seoKeywords,
		&item.CreatedAt, &item.UpdatedAt,
		&item.AuthorUsername, &item.AuthorAvatar,
	)
	if err != nil {
		return nil, err
	}

	item.CategoryIDs = categoryIDs
	item.Tags = tags
	item.Meta.LikedBy = likedBy
	item.SEO.Keywords = seoKeywords
	if publishedAt.Valid {
		item.PublishedAt = &publishedAt.Time
	}
	return item, nil
}

// collectPostListItems はクエリ結果を読み切ってスライスに集める。
func collectPostListItems(rows *sql.Rows) ([]*PostListItem, error) {
	var items []*PostListItem
	for rows.Next() {
		item, err := scanPostListItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post list item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return items, nil
}

// ListAll は全記事を著者情報付きで作成日時降順で返す。管理画面用。
func (r *PostgresPostRepo) ListAll(ctx context.Context) ([]*PostListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listItemColumns+`
		 FROM posts p JOIN users u ON p.author_id = u.id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all posts: %w", err)
	}
	defer rows.Close()
	return collectPostListItems(rows)
}

// ListPublished は公開記事を著者情報付きで公開日時降順で返す。
func (r *PostgresPostRepo) ListPublished(ctx context.Context, limit, offset int) ([]*PostListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listItemColumns+`
		 FROM posts p JOIN users u ON p.author_id = u.id
		 WHERE p.status = 'published'
		 ORDER BY p.published_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()
	return collectPostListItems(rows)
}

// ListPublishedByCategory は指定カテゴリを参照する公開記事を返す。
// カテゴリ参照配列へのID所属判定でフィルタする。
func (r *PostgresPostRepo) ListPublishedByCategory(ctx context.Context, categoryID string) ([]*PostListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listItemColumns+`
		 FROM posts p JOIN users u ON p.author_id = u.id
		 WHERE p.status = 'published' AND $1 = ANY(p.category_ids)
		 ORDER BY p.published_at DESC`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by category: %w", err)
	}
	defer rows.Close()
	return collectPostListItems(rows)
}

// ListPublishedByTag は指定タグを含む公開記事を返す。
func (r *PostgresPostRepo) ListPublishedByTag(ctx context.Context, tag string) ([]*PostListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listItemColumns+`
		 FROM posts p JOIN users u ON p.author_id = u.id
		 WHERE p.status = 'published' AND $1 = ANY(p.tags)
		 ORDER BY p.published_at DESC`,
		tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by tag: %w", err)
	}
	defer rows.Close()
	return collectPostListItems(rows)
}

// ToggleLike はいいね状態を単一の原子的なUPDATE文でトグルする。
// 所属判定と追加・削除が同一文内で評価されるため、同時トグルでも
// 同一ユーザーIDが重複して追加されることはない。
// 記事が存在しない場合はnilを返す。
func (r *PostgresPostRepo) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	result := &LikeResult{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE posts SET
		     liked_by = CASE
		         WHEN $2::uuid = ANY(liked_by) THEN array_remove(liked_by, $2::uuid)
		         ELSE array_append(liked_by, $2::uuid)
		     END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING $2::uuid = ANY(liked_by), COALESCE(array_length(liked_by, 1), 0)`,
		postID, userID,
	).Scan(&result.Liked, &result.Count)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	return result, nil
}

// IncrementViews は閲覧数を原子的に加算する。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// ListTagCounts は公開記事のタグ別記事数を件数降順で返す。
func (r *PostgresPostRepo) ListTagCounts(ctx context.Context, limit int) ([]*model.TagCount, error) {
	query := `SELECT t.tag, COUNT(*) AS post_count
		 FROM posts p, unnest(p.tags) AS t(tag)
		 WHERE p.status = 'published'
		 GROUP BY t.tag
		 ORDER BY post_count DESC, t.tag`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag counts: %w", err)
	}
	defer rows.Close()

	var counts []*model.TagCount
	for rows.Next() {
		tc := &model.TagCount{}
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag counts: %w", err)
	}
	return counts, nil
}

// TagExists は指定タグ値がいずれかの記事に存在するかどうかを返す。
func (r *PostgresPostRepo) TagExists(ctx context.Context, tag string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE $1 = ANY(tags))`, tag).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tag existence: %w", err)
	}
	return exists, nil
}

// RenameTag はタグ配列内の該当要素のみを置換する。
// 単一のUPDATE文で対象の全記事に適用される。
func (r *PostgresPostRepo) RenameTag(ctx context.Context, oldTag, newTag string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET tags = array_replace(tags, $1, $2), updated_at = now()
		 WHERE $1 = ANY(tags)`,
		oldTag, newTag)
	if err != nil {
		return 0, fmt.Errorf("failed to rename tag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// RemoveTag は指定タグ値を全記事のタグ配列から取り除く。
func (r *PostgresPostRepo) RemoveTag(ctx context.Context, tag string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET tags = array_remove(tags, $1), updated_at = now()
		 WHERE $1 = ANY(tags)`,
		tag)
	if err != nil {
		return 0, fmt.Errorf("failed to remove tag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
