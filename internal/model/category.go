// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultCategoryImage はカテゴリ画像未設定時のデフォルト画像URL。
const DefaultCategoryImage = "https://static.blogman.example/categories/default.jpg"

// Category は記事カテゴリを表す。
// Slugは名前から導出され、名前変更時に再計算される。
// 記事数は公開記事のみを対象とした導出値であり、保存フィールドではない。
type Category struct {
	ID            string
	Name          string
	Slug          string
	Description   string
	FeaturedImage string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CategoryWithCount はカテゴリと導出集計を結合したモデル。
// ArticleCountは公開記事数、LatestPublishedAtはその中で最新の公開日時。
type CategoryWithCount struct {
	Category
	ArticleCount      int
	LatestPublishedAt *time.Time
}

// TagCount はタグ値ごとの記事数の導出集計を表す。
type TagCount struct {
	Tag   string
	Count int
}
