// Package validation は信頼できない入力ペイロードのスキーマ検証を提供する。
//
// エンティティごとに独立したスキーマ関数を定義し、型・長さ・必須・形式・
// フィールド間ルールを検証する。検証は決して例外的に中断せず、最初の
// エラーで止まらずに全フィールドのエラーを1回の走査で集めて返す。
// 呼び出し側はエラーリストをそのまま400レスポンスに変換する。
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode/utf8"
)

var (
	// emailPattern はメールアドレスの形式検証パターン。
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// usernamePattern はスラグ安全なユーザー名の文字種パターン。
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

	// uuidPattern は識別子の構文検証パターン。
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// errorList は検証エラーの蓄積バッファ。
// フィールドの宣言順を保ったままメッセージを集める。
type errorList struct {
	errs []string
}

// add は書式化したエラーメッセージを追加する。
func (e *errorList) add(format string, args ...any) {
	e.errs = append(e.errs, fmt.Sprintf(format, args...))
}

// requireLength は必須文字列の長さ境界を検証する。
func (e *errorList) requireLength(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		e.add("%s: 必須項目です。", field)
		return
	}
	if n < min || n > max {
		e.add("%s: %d文字以上%d文字以下で入力してください。", field, min, max)
	}
}

// optionalMaxLength は任意文字列の最大長を検証する。
func (e *errorList) optionalMaxLength(field, value string, max int) {
	if value == "" {
		return
	}
	if utf8.RuneCountInString(value) > max {
		e.add("%s: %d文字以下で入力してください。", field, max)
	}
}

// requireEmail はメールアドレス形式を検証する。
func (e *errorList) requireEmail(field, value string) {
	if value == "" {
		e.add("%s: 必須項目です。", field)
		return
	}
	if !emailPattern.MatchString(value) {
		e.add("%s: メールアドレスの形式が正しくありません。", field)
	}
}

// optionalURL は任意のURL形式を検証する。httpまたはhttpsのみ許可する。
func (e *errorList) optionalURL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		e.add("%s: URLの形式が正しくありません。", field)
	}
}

// IsValidID は識別子の構文が正しいかどうかを返す。
// ストレージに触れる前の事前検証に使用する。
func IsValidID(id string) bool {
	return uuidPattern.MatchString(id)
}
