// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/token"
)

// AuthCookieName は認証トークンを保持するHTTP Only Cookieの名前。
const AuthCookieName = "auth_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// TokenVerifier は認証トークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はHTTP Only Cookieから認証トークンを読み取り検証する
// ミドルウェアを返す。認証済みユーザーをリクエストコンテキストに注入する。
//
// トークンの欠如・無効とユーザーの不存在は401、認証は通ったがロールが
// 許可集合に含まれない場合は403を返す。この区別により、ログインし直しても
// 解決しない要求と再認証で解決する要求をクライアントが見分けられる。
// rolesが空の場合は認証のみを要求する。
func NewAuthMiddleware(verifier TokenVerifier, users UserFinder, roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
				return
			}

			claims, err := verifier.Verify(cookie.Value)
			if err != nil {
				WriteErrorResponse(w, model.NewUnauthorizedError("認証情報が無効です。"))
				return
			}

			// ロール判定はトークンではなく現在のユーザーレコードに基づく
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				slog.Error("failed to load authenticated user",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, model.NewUnauthorizedError("認証情報が無効です。"))
				return
			}

			if len(allowed) > 0 {
				if _, ok := allowed[user.Role]; !ok {
					WriteErrorResponse(w, model.NewForbiddenError())
					return
				}
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
