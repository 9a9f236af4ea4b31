package validation

import (
	"unicode/utf8"

	"github.com/hitoshi/blogman/internal/model"
)

// SignupInput はサインアップリクエストの入力。
type SignupInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Signup はサインアップ入力を検証し、全フィールドエラーを返す。
func Signup(in SignupInput) []string {
	var e errorList

	e.requireLength("username", in.Username, 3, 30)
	if in.Username != "" && !usernamePattern.MatchString(in.Username) {
		e.add("username: 英数字・ハイフン・アンダースコアのみ使用できます。")
	}

	e.requireEmail("email", in.Email)
	e.optionalMaxLength("email", in.Email, 254)

	e.requireLength("password", in.Password, 6, 72)

	// クロスフィールドルール: パスワード確認の一致
	if in.Password != in.ConfirmPassword {
		e.add("confirmPassword: パスワードが一致しません。")
	}

	return e.errs
}

// LoginInput はログインリクエストの入力。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はログイン入力を検証し、全フィールドエラーを返す。
func Login(in LoginInput) []string {
	var e errorList
	e.requireEmail("email", in.Email)
	e.requireLength("password", in.Password, 1, 72)
	return e.errs
}

// CategoryInput はカテゴリ作成・更新リクエストの入力。
type CategoryInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	FeaturedImage string `json:"featuredImage"`
}

// Category はカテゴリ入力を検証し、全フィールドエラーを返す。
func Category(in CategoryInput) []string {
	var e errorList
	e.requireLength("name", in.Name, 2, 50)
	e.optionalMaxLength("description", in.Description, 500)
	e.optionalURL("featuredImage", in.FeaturedImage)
	return e.errs
}

// PostInput は管理者による記事作成・更新リクエストの入力。
// Tagsはカンマ区切り文字列と文字列配列の両形式を受け付け、正規化済み。
type PostInput struct {
	Title          string        `json:"title"`
	Excerpt        string        `json:"excerpt"`
	Content        string        `json:"content"`
	CategoryIDs    []string      `json:"categories"`
	Tags           model.TagList `json:"tags"`
	Status         string        `json:"status"`
	FeaturedImage  string        `json:"featuredImage"`
	IsFeatured     bool          `json:"isFeatured"`
	SEOTitle       string        `json:"seoTitle"`
	SEODescription string        `json:"seoDescription"`
	SEOKeywords    model.TagList `json:"seoKeywords"`
}

// Post は記事入力を検証し、全フィールドエラーを返す。
func Post(in PostInput) []string {
	var e errorList

	e.requireLength("title", in.Title, 3, 200)
	e.optionalMaxLength("excerpt", in.Excerpt, 300)
	e.requireLength("content", in.Content, 10, 100000)

	if in.Status != "" && !model.IsValidPostStatus(in.Status) {
		e.add("status: draft・published・archivedのいずれかを指定してください。")
	}

	for _, id := range in.CategoryIDs {
		if !IsValidID(id) {
			e.add("categories: カテゴリIDの形式が正しくありません: %s", id)
		}
	}

	if len(in.Tags) > 10 {
		e.add("tags: タグは10個までです。")
	}
	for _, tag := range in.Tags {
		if utf8.RuneCountInString(tag) > 30 {
			e.add("tags: 各タグは30文字以下で入力してください: %s", tag)
		}
	}

	e.optionalURL("featuredImage", in.FeaturedImage)
	e.optionalMaxLength("seoTitle", in.SEOTitle, 70)
	e.optionalMaxLength("seoDescription", in.SEODescription, 160)

	return e.errs
}

// ProfileInput はプロフィール更新リクエストの入力。
type ProfileInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar"`
	Twitter   string `json:"twitter"`
	GitHub    string `json:"github"`
	Website   string `json:"website"`
}

// Profile はプロフィール入力を検証し、全フィールドエラーを返す。
func Profile(in ProfileInput) []string {
	var e errorList

	e.requireLength("username", in.Username, 3, 30)
	if in.Username != "" && !usernamePattern.MatchString(in.Username) {
		e.add("username: 英数字・ハイフン・アンダースコアのみ使用できます。")
	}

	e.requireEmail("email", in.Email)
	e.optionalMaxLength("bio", in.Bio, 500)
	e.optionalURL("avatar", in.AvatarURL)
	e.optionalURL("twitter", in.Twitter)
	e.optionalURL("github", in.GitHub)
	e.optionalURL("website", in.Website)

	return e.errs
}
