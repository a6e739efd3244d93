package repository

import (
	"context"
	"errors"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, err
	}
	return address, nil
}

// 住所IDで1件取得
func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).First(&a, addressID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Address{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Address{}, err
	}
	return a, nil
}

func (r *addressGormRepository) FindByIDs(ctx context.Context, addressIDs []int64) ([]model.Address, error) {
	if len(addressIDs) == 0 {
		return []model.Address{}, nil
	}
	var list []model.Address
	if err := r.db.WithContext(ctx).Where("id IN ?", addressIDs).Find(&list).Error; err != nil {
		return []model.Address{}, err
	}
	return list, nil
}

// 住所を更新
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ?", address.ID).
		Select(
			"addressee",
			"postal_code",
			"address1",
			"address2",
			"phone",
			"updated_at",
		).
		Updates(address)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 住所を削除
func (r *addressGormRepository) DeleteByIDs(ctx context.Context, addressIDs []int64) error {
	if len(addressIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", addressIDs).
		Delete(&model.Address{}).Error
}
