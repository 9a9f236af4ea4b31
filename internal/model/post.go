// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// PostStatus は記事の公開状態を表す。
type PostStatus string

const (
	// PostStatusDraft は下書き状態。
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished は公開状態。
	PostStatusPublished PostStatus = "published"
	// PostStatusArchived はアーカイブ状態。
	PostStatusArchived PostStatus = "archived"
)

// IsValidPostStatus は公開状態文字列が有効かどうかを返す。
func IsValidPostStatus(s string) bool {
	switch PostStatus(s) {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// PostMeta は記事のエンゲージメント情報を表す。
// LikedByにはいいねしたユーザーIDが高々1回ずつ現れる。
type PostMeta struct {
	LikedBy      []string
	Views        int
	CommentCount int
}

// PostSEO は記事のSEOメタデータを表す。
type PostSEO struct {
	Title       string
	Description string
	Keywords    []string
}

// Post はブログ記事を表す。
// Slugはタイトルから決定的に導出され、タイトル変更時のみ再計算される。
// ReadTimeはコンテンツの語数から導出される表示用文字列（"N min read"）。
type Post struct {
	ID            string
	Title         string
	Slug          string
	Excerpt       string
	Content       string // サニタイズ済みHTML
	CategoryIDs   []string
	Tags          []string
	AuthorID      string
	Status        PostStatus
	PublishedAt   *time.Time // published への遷移時のみ設定される
	FeaturedImage string
	ReadTime      string
	IsFeatured    bool
	Meta          PostMeta
	SEO           PostSEO
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLikedBy は指定ユーザーがこの記事をいいね済みかどうかを返す。
func (p *Post) IsLikedBy(userID string) bool {
	for _, id := range p.Meta.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// TagList はタグ入力の正規化付きリスト。
// JSONではカンマ区切りの単一文字列と文字列配列の両方を受け付け、
// 前後空白を除去し、空要素と重複を取り除いたリストに正規化する。
type TagList []string

// UnmarshalJSON は文字列または文字列配列からTagListを復元する。
func (t *TagList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = NormalizeTags(strings.Split(single, ","))
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = NormalizeTags(list)
	return nil
}

// NormalizeTags はタグ群を正規化する。
// 前後空白の除去、空要素の除去、初出順を保った重複排除を行う。
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
