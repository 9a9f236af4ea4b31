// Package auth はパスワード認証、アカウントロックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/token"
	"github.com/hitoshi/blogman/internal/validation"
)

// invalidCredentialsMessage は存在しないメールとパスワード不一致で共通。
// どちらが誤っていたかを応答から区別できないようにする。
const invalidCredentialsMessage = "メールアドレスまたはパスワードが正しくありません。"

// lockedAccountMessage はロック中アカウントへのログイン試行に返す。
const lockedAccountMessage = "アカウントは一時的にロックされています。しばらくしてから再試行してください。"

// TokenIssuer は認証トークンの発行インターフェース。
type TokenIssuer interface {
	// Issue は署名付きの時限トークンを発行する。
	Issue(claims token.Claims) (string, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	LockoutThreshold int           // ロック発動までの連続失敗回数
	LockoutDuration  time.Duration // ロック継続時間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens TokenIssuer, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// Signup は新規ユーザーを登録し、認証トークンを発行する。
// メールアドレスは小文字に正規化して保存する。ロールは常に一般読者。
func (s *Service) Signup(ctx context.Context, in validation.SignupInput) (*model.User, string, error) {
	if errs := validation.Signup(in); len(errs) > 0 {
		return nil, "", model.NewValidationError(errs)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewConflictError("このメールアドレスは既に使用されています。")
	}

	existing, err = s.userRepo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewConflictError("このユーザー名は既に使用されています。")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        email,
		PasswordHash: string(hash),
		AvatarURL:    model.DefaultAvatarURL,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 事前チェック後に割り込んだ同名登録は一意制約で検出される
		if repository.IsUniqueViolation(err) {
			return nil, "", model.NewConflictError("このユーザー名またはメールアドレスは既に使用されています。")
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	signed, err := s.tokens.Issue(token.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, signed, nil
}

// Login はメールアドレスとパスワードで認証し、認証トークンを発行する。
// 連続失敗が閾値に達するとアカウントを一定時間ロックする。
func (s *Service) Login(ctx context.Context, in validation.LoginInput) (*model.User, string, error) {
	if errs := validation.Login(in); len(errs) > 0 {
		return nil, "", model.NewValidationError(errs)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", model.NewUnauthorizedError(invalidCredentialsMessage)
	}

	now := time.Now()
	if user.IsLocked(now) {
		slog.Warn("login attempt on locked account", slog.String("user_id", user.ID))
		return nil, "", model.NewUnauthorizedError(lockedAccountMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if err := s.recordFailure(ctx, user, now); err != nil {
			return nil, "", err
		}
		return nil, "", model.NewUnauthorizedError(invalidCredentialsMessage)
	}

	if err := s.userRepo.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("failed to record login success: %w", err)
	}

	signed, err := s.tokens.Issue(token.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, signed, nil
}

// recordFailure はログイン失敗を記録し、閾値に達した場合はロックを設定する。
func (s *Service) recordFailure(ctx context.Context, user *model.User, now time.Time) error {
	attempts := user.LoginAttempts + 1

	var lockedUntil *time.Time
	if attempts >= s.config.LockoutThreshold {
		until := now.Add(s.config.LockoutDuration)
		lockedUntil = &until
		slog.Warn("account locked after repeated login failures",
			slog.String("user_id", user.ID),
			slog.Int("attempts", attempts),
			slog.Time("locked_until", until),
		)
	}

	if err := s.userRepo.RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// CurrentUser は認証トークンのユーザーIDから現在のユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError("認証情報が無効です。")
	}
	return user, nil
}
