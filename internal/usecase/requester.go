package usecase

import "rebirth/internal/domain/model"

// 認証済みの呼び出し元（JWTのclaimsから作る）
type Requester struct {
	UserID int64
	Email  string
	Role   model.Role
}

func (r Requester) IsAdmin() bool {
	return r.Role == model.RoleAdmin
}
