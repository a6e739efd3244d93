package usecase

import (
	"context"
	"errors"

	"rebirth/internal/domain/model"
	"rebirth/internal/repository"

	"github.com/sirupsen/logrus"
)

// 住所は注文と一緒に作られ、注文の更新で書き換わる。ここは参照だけ。
type AddressUsecase struct {
	addresses repository.AddressRepository
	logger    logrus.FieldLogger
}

func NewAddressUsecase(addresses repository.AddressRepository, logger logrus.FieldLogger) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, logger: logger}
}

func (u *AddressUsecase) Get(ctx context.Context, addressID int64) (model.Address, error) {
	if addressID <= 0 {
		return model.Address{}, BadRequest("invalid address id")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Address{}, NotFound(msgAddressNotFound)
	}
	if err != nil {
		u.logger.WithError(err).Error("find address")
		return model.Address{}, Internal(msgDBError)
	}
	return a, nil
}
