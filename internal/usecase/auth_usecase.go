package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"rebirth/internal/domain/model"
	"rebirth/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	secret    []byte
	ttl       time.Duration
	users     repository.UserRepository
	validator AuthValidator
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewAuthUsecase(
	secret string,
	ttl time.Duration,
	users repository.UserRepository,
	validator AuthValidator,
	logger logrus.FieldLogger,
) *AuthUsecase {
	return &AuthUsecase{
		secret:    []byte(secret),
		ttl:       ttl,
		users:     users,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Email = strings.TrimSpace(req.Email)

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("internal error")
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
	}

	//保存（validatorの後に同時登録された場合はここで弾く）
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, Conflict("email already exists")
		}
		u.logger.WithError(err).Error("create user")
		return nil, Internal(msgDBError)
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)

	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && user == nil) {
		return nil, Unauthorized("invalid email or password")
	}
	if err != nil {
		u.logger.WithError(err).Error("find user")
		return nil, Internal(msgDBError)
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, Forbidden("user inactive")
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, Unauthorized("invalid email or password")
	}

	//last_login更新（失敗してもログインは通す）
	now := u.now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.logger.WithError(err).WithField("user_id", user.ID).Warn("update last login")
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, Internal("internal error")
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, Unauthorized("unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, Unauthorized("unauthorized")
	}
	if !user.IsActive {
		return nil, Forbidden("user inactive")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_versionを上げて発行済みのaccess tokenを全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, actor Requester, targetUserID int64) (*ForceLogoutResponse, error) {
	if !actor.IsAdmin() {
		return nil, Forbidden("admin only")
	}
	if targetUserID <= 0 {
		return nil, BadRequest("invalid user id")
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		u.logger.WithError(err).Error("find user")
		return nil, Internal(msgDBError)
	}

	user.TokenVersion++
	if err := u.users.Update(ctx, user); err != nil {
		u.logger.WithError(err).Error("update user")
		return nil, Internal(msgDBError)
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.now()
	exp := now.Add(u.ttl)

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"tv":    user.TokenVersion,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(u.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, int(u.ttl.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
