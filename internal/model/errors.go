// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// ErrorKind はAPIエラーの機械判定可能な種別を表す。
type ErrorKind string

const (
	// ErrKindValidation は入力検証エラー（400）。
	ErrKindValidation ErrorKind = "validation"
	// ErrKindUnauthorized は未認証エラー（401）。
	ErrKindUnauthorized ErrorKind = "unauthorized"
	// ErrKindForbidden は権限不足エラー（403）。
	ErrKindForbidden ErrorKind = "forbidden"
	// ErrKindNotFound は対象未検出エラー（404）。
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindConflict は一意性違反エラー（409）。
	ErrKindConflict ErrorKind = "conflict"
	// ErrKindInternal は予期しない内部エラー（500）。
	ErrKindInternal ErrorKind = "internal"
)

// APIError は統一エラーフォーマットを表す。
// 期待されるエラーは種別・ステータス・メッセージを持ち、ハンドラーが
// そのままレスポンスに変換する。Errorsは検証エラーのみが持つ全件リスト。
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Errors  []string // 検証エラーの全フィールドメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewValidationError は全フィールドエラーを束ねた検証エラーを生成する。
func NewValidationError(errs []string) *APIError {
	return &APIError{
		Kind:    ErrKindValidation,
		Status:  http.StatusBadRequest,
		Message: "Validation Error",
		Errors:  errs,
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Kind:    ErrKindUnauthorized,
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Kind:    ErrKindForbidden,
		Status:  http.StatusForbidden,
		Message: "この操作を行う権限がありません。",
	}
}

// NewNotFoundError は対象未検出エラーを生成する。
func NewNotFoundError(entity string) *APIError {
	return &APIError{
		Kind:    ErrKindNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%sが見つかりません。", entity),
	}
}

// NewConflictError は一意性違反エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Kind:    ErrKindConflict,
		Status:  http.StatusConflict,
		Message: message,
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Kind:    ErrKindInternal,
		Status:  http.StatusInternalServerError,
		Message: "内部エラーが発生しました。",
	}
}
