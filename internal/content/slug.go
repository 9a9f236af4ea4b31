// Package content はタイトルや本文からの表示用導出値を提供する。
//
// スラグは表示名からの決定的な導出であり、同一入力に対して常に同一出力を
// 返す（冪等）。読了時間は本文のタグを除いた語数から導出される。
package content

import "strings"

// maxSlugLength はスラグの最大長。
const maxSlugLength = 50

// Slug は表示名からURL安全なスラグを導出する。
// 小文字化、ハイフン以外の記号の除去、空白のハイフン置換、連続ハイフンの
// 圧縮を行い、50文字に切り詰める。出力は再適用しても変化しない。
func Slug(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '-', r == '_':
			b.WriteByte('-')
		}
	}

	// 連続ハイフンを1つに圧縮し、先頭と末尾のハイフンを除去する
	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	slug := strings.Join(parts, "-")

	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}
