// Package token は署名付き認証トークンの発行と検証を提供する。
//
// トークンはHS256で署名されたJWTであり、ユーザーID・メールアドレス・
// ロールを含む。秘密鍵は起動時に設定から注入され、以降は読み取り専用。
// 発行と検証は純粋な暗号操作であり、副作用を持たない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/blogman/internal/model"
)

// ErrInvalidToken は署名不一致・形式不正・期限切れのトークンを表す。
// トークンが存在しないケースは呼び出し側の前提条件であり、このエラーにはならない。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims は認証トークンに含まれる識別情報。
// リクエスト処理中のロール判定はこのペイロードを情報源とする。
type Claims struct {
	UserID string
	Email  string
	Role   model.Role
}

// jwtClaims はJWTエンコード用の内部表現。
type jwtClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service は認証トークンの発行と検証を行う。
type Service struct {
	secret []byte
	maxAge time.Duration
}

// NewService はServiceを生成する。
// maxAgeは発行するトークンの有効期間を指定する。
func NewService(secret string, maxAge time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// Issue は署名付きの時限トークンを発行する。
func (s *Service) Issue(claims Claims) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email: claims.Email,
		Role:  string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証してClaimsを返す。
// 署名不一致・形式不正・期限切れの場合はErrInvalidTokenを返す。
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || jc.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID: jc.Subject,
		Email:  jc.Email,
		Role:   model.Role(jc.Role),
	}, nil
}
