package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ロック期限の判定がロック中とロック解除済みを区別することを検証
func TestUserModel_IsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	locked := &model.User{LockedUntil: &future}
	if !locked.IsLocked(now) {
		t.Error("expected user with future locked_until to be locked")
	}

	expired := &model.User{LockedUntil: &past}
	if expired.IsLocked(now) {
		t.Error("expected user with past locked_until to be unlocked")
	}

	unlocked := &model.User{}
	if unlocked.IsLocked(now) {
		t.Error("expected user without locked_until to be unlocked")
	}
}
