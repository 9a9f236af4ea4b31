// Package user はプロフィール管理とユーザー一覧のビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/validation"
)

// Service はユーザーに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// UpdateProfile は操作者自身のプロフィールを更新する。
// ユーザー名とメールアドレスの変更時は重複を確認する。
// ロールとパスワードはこの操作では変更できない。
func (s *Service) UpdateProfile(ctx context.Context, actor *model.User, in validation.ProfileInput) (*model.User, error) {
	if errs := validation.Profile(in); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username != actor.Username {
		existing, err := s.userRepo.FindByUsername(ctx, in.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil && existing.ID != actor.ID {
			return nil, model.NewConflictError("このユーザー名は既に使用されています。")
		}
	}

	if email != actor.Email {
		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != actor.ID {
			return nil, model.NewConflictError("このメールアドレスは既に使用されています。")
		}
	}

	updated := *actor
	updated.Username = in.Username
	updated.Email = email
	updated.Bio = in.Bio
	if in.AvatarURL != "" {
		updated.AvatarURL = in.AvatarURL
	}
	updated.Social = model.SocialLinks{
		Twitter: in.Twitter,
		GitHub:  in.GitHub,
		Website: in.Website,
	}
	updated.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, &updated); err != nil {
		// 事前チェック後に割り込んだ変更は一意制約で検出される
		if repository.IsUniqueViolation(err) {
			return nil, model.NewConflictError("このユーザー名またはメールアドレスは既に使用されています。")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", updated.ID))
	return &updated, nil
}

// List は全ユーザーを作成日時降順で返す。管理画面用。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
