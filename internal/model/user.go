// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
// 操作ごとに許可ロールの集合で判定し、数値的な上下関係は持たない。
type Role string

const (
	// RoleUser は一般読者ロール。
	RoleUser Role = "user"
	// RoleAuthor は記事投稿者ロール。
	RoleAuthor Role = "author"
	// RoleAdmin は管理者ロール。
	RoleAdmin Role = "admin"
)

// ValidRoles は有効なロールの一覧。
var ValidRoles = []Role{RoleUser, RoleAuthor, RoleAdmin}

// IsValidRole はロール文字列が有効かどうかを返す。
func IsValidRole(r string) bool {
	for _, v := range ValidRoles {
		if Role(r) == v {
			return true
		}
	}
	return false
}

// DefaultAvatarURL はアバター未設定時のデフォルト画像URL。
const DefaultAvatarURL = "https://static.blogman.example/avatars/default.png"

// SocialLinks はユーザーのソーシャルリンクを表す。各項目は任意。
type SocialLinks struct {
	Twitter string
	GitHub  string
	Website string
}

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには決して含めない。
type User struct {
	ID            string
	Username      string
	Email         string // 常に小文字で保持する
	PasswordHash  string
	AvatarURL     string
	Bio           string
	Role          Role
	Social        SocialLinks
	IsVerified    bool
	LockedUntil   *time.Time // ロック中の場合のみ非nil
	LastLoginAt   *time.Time
	LoginAttempts int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked は指定時刻においてアカウントがロック中かどうかを返す。
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
