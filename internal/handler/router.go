package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder

	// メトリクス（いずれもnilを許容する）
	MetricsMiddleware func(next http.Handler) http.Handler
	MetricsHandler    http.Handler
	AuthMetrics       AuthFailureRecorder
	PostMetrics       PostMetricsRecorder
	ImportMetrics     ImportMetricsRecorder

	// サービス
	AuthService     AuthServiceInterface
	AuthConfig      AuthHandlerConfig
	PostService     PostServiceInterface
	CategoryService CategoryServiceInterface
	TagService      TagServiceInterface
	UserService     UserServiceInterface
	ImportService   ImportServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → セキュリティヘッダー → ロギング → リカバリー → メトリクス
//
// 認証が必要なルートグループには認証ミドルウェアと一般レート制限を、
// ログイン・サインアップにはIP別レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.TokenVerifier, deps.AuthMetrics, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService, deps.PostMetrics)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	tagHandler := NewTagHandler(deps.TagService)
	userHandler := NewUserHandler(deps.UserService)
	importHandler := NewImportHandler(deps.ImportService, deps.ImportMetrics)

	// 認可ゲート。ロール集合はルートグループごとに明示する。
	requireAuthenticated := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder)
	requireAuthorTier := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder, model.RoleAuthor, model.RoleAdmin)
	requireAdmin := middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder, model.RoleAdmin)

	// --- 運用エンドポイント ---

	r.Get("/health", handleHealth)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証ルート ---

	r.Route("/auth", func(r chi.Router) {
		loginLimit := deps.RateLimiter.LoginMiddleware()
		r.With(loginLimit).Post("/signup", authHandler.Signup)
		r.With(loginLimit).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証不要の公開ルート ---

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", postHandler.ListPosts)
		r.Get("/{id}", postHandler.GetPost)

		// いいねトグルは投稿者層のみ
		r.Group(func(r chi.Router) {
			r.Use(requireAuthorTier)
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Patch("/{id}/like", postHandler.ToggleLike)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategories)
		r.Get("/{slug}", categoryHandler.GetCategory)
	})

	r.Route("/api/tags", func(r chi.Router) {
		r.Get("/", tagHandler.ListTags)
		r.Get("/popular", tagHandler.ListPopularTags)
		r.Get("/{tag}", tagHandler.GetTag)
	})

	// --- 認証済みユーザーのルート ---

	r.Route("/api/profile", func(r chi.Router) {
		r.Use(requireAuthenticated)
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Get("/", userHandler.GetProfile)
		r.Put("/", userHandler.UpdateProfile)
	})

	// --- 管理ルート ---

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListAdminPosts)
			r.Post("/", postHandler.CreatePost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetAdminPost)
				r.Put("/", postHandler.UpdatePost)
				r.Delete("/", postHandler.DeletePost)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", categoryHandler.UpdateCategory)
				r.Delete("/", categoryHandler.DeleteCategory)
			})
		})

		r.Route("/tags/{tag}", func(r chi.Router) {
			r.Patch("/", tagHandler.RenameTag)
			r.Delete("/", tagHandler.RemoveTag)
		})

		r.Get("/users", userHandler.ListUsers)
		r.Post("/import", importHandler.ImportFeed)
	})

	return r
}

// handleHealth は稼働確認エンドポイント。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
