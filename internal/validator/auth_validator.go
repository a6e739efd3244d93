package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"rebirth/internal/repository"
	"rebirth/internal/usecase"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// パスワード最低文字数
const minPasswordLen = 8

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.BadRequest("email and password required")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.BadRequest("invalid email")
	}

	if len(password) < minPasswordLen {
		return usecase.BadRequest("password too short")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.Conflict("email already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return usecase.Internal("db error")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.BadRequest("email and password required")
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.BadRequest("invalid email")
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
