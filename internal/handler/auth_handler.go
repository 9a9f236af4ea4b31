package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup は新規ユーザーを作成し、認証トークンを発行する。
	Signup(ctx context.Context, in validation.SignupInput) (*model.User, string, error)
	// Login は資格情報を検証し、認証トークンを発行する。
	Login(ctx context.Context, in validation.LoginInput) (*model.User, string, error)
	// CurrentUser はトークンの主体に対応するユーザーを取得する。
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthFailureRecorder は認証失敗メトリクスの記録インターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	CookieMaxAge int // 認証トークンCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	verifier middleware.TokenVerifier
	metrics  AuthFailureRecorder // nilを許容する
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilを許容する。
func NewAuthHandler(service AuthServiceInterface, verifier middleware.TokenVerifier, metrics AuthFailureRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		verifier: verifier,
		metrics:  metrics,
		config:   config,
	}
}

// Signup は新規ユーザー登録を処理する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in validation.SignupInput
	if !decodeBody(w, r, &in) {
		return
	}

	user, tokenString, err := h.service.Signup(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setAuthCookie(w, tokenString)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if !decodeBody(w, r, &in) {
		return
	}

	user, tokenString, err := h.service.Login(r.Context(), in)
	if err != nil {
		var apiErr *model.APIError
		if h.metrics != nil && errors.As(err, &apiErr) && apiErr.Kind == model.ErrKindUnauthorized {
			h.metrics.RecordAuthFailure("invalid_credentials")
		}
		handleServiceError(w, err)
		return
	}

	h.setAuthCookie(w, tokenString)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout は認証Cookieを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
//
// 認証ミドルウェアの外に置かれるため、Cookieの読み取りと検証を自前で行う。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AuthCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
		return
	}

	claims, err := h.verifier.Verify(cookie.Value)
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("認証情報が無効です。"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// setAuthCookie は認証トークンをHTTP Only Cookieとして設定する。
func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, tokenString string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    tokenString,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookie は認証Cookieを期限切れの空値で上書きする。
func (h *AuthHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
