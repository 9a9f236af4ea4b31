package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// categoryColumns はcategoriesテーブルのSELECT列リスト。
const categoryColumns = `id, name, slug, description, featured_image, created_at, updated_at`

// scanCategory は1行をmodel.Categoryに読み取る。
func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	c := &model.Category{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.FeaturedImage,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return c, nil
}

// FindBySlug はスラグでカテゴリを検索する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category by slug: %w", err)
	}
	return c, nil
}

// FindByName は名前でカテゴリを検索する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}
	return c, nil
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, description, featured_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		category.ID, category.Name, category.Slug, category.Description,
		category.FeaturedImage, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// Update はカテゴリを更新する。
func (r *PostgresCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2, slug = $3, description = $4,
		     featured_image = $5, updated_at = $6
		 WHERE id = $1`,
		category.ID, category.Name, category.Slug, category.Description,
		category.FeaturedImage, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category not found: %s", category.ID)
	}
	return nil
}

// Delete は指定IDのカテゴリを削除する。
func (r *PostgresCategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// List は全カテゴリを名前順で返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// ListByIDs は指定ID群のカテゴリを返す。
func (r *PostgresCategoryRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY name`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories by IDs: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// collectCategories はクエリ結果を読み切ってスライスに集める。
func collectCategories(rows *sql.Rows) ([]*model.Category, error) {
	var categories []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// ListWithCounts は全カテゴリを公開記事数と最新公開日時付きで返す。
// 記事数はpostsのカテゴリ参照配列へのID所属判定で毎回導出する。
func (r *PostgresCategoryRepo) ListWithCounts(ctx context.Context) ([]*model.CategoryWithCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.slug, c.description, c.featured_image,
		        c.created_at, c.updated_at,
		        COUNT(p.id) AS article_count,
		        MAX(p.published_at) AS latest_published_at
		 FROM categories c
		 LEFT JOIN posts p ON c.id = ANY(p.category_ids) AND p.status = 'published'
		 GROUP BY c.id
		 ORDER BY article_count DESC, c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories with counts: %w", err)
	}
	defer rows.Close()

	var results []*model.CategoryWithCount
	for rows.Next() {
		cwc := &model.CategoryWithCount{}
		var latest sql.NullTime
		err := rows.Scan(
			&cwc.ID, &cwc.Name, &cwc.Slug, &cwc.Description, &cwc.FeaturedImage,
			&cwc.CreatedAt, &cwc.UpdatedAt,
			&cwc.ArticleCount, &latest,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category with count: %w", err)
		}
		if latest.Valid {
			cwc.LatestPublishedAt = &latest.Time
		}
		results = append(results, cwc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories with counts: %w", err)
	}
	return results, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
