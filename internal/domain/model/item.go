package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品が提供するオプション
type ItemOptions struct {
	Colors []string `json:"color"`
	Sizes  []string `json:"size"`
}

// 選択肢に含まれるか。空のリストは指定なしのみ許可。
func (o ItemOptions) Allows(opt ItemOption) bool {
	return allows(o.Colors, opt.Color) && allows(o.Sizes, opt.Size)
}

func allows(choices []string, v string) bool {
	if len(choices) == 0 {
		return v == ""
	}
	for _, c := range choices {
		if c == v {
			return true
		}
	}
	return false
}

type Item struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Category        string         `gorm:"type:varchar(100);not null;index" json:"category"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Price           int64          `gorm:"not null" json:"price"`
	Options         ItemOptions    `gorm:"column:options;type:jsonb;serializer:json" json:"option"`
	Content         string         `gorm:"type:text" json:"content"`
	ImageURL        string         `gorm:"column:image_url;type:varchar(512);not null" json:"image_url"`
	DetailImageURLs []string       `gorm:"column:detail_image_urls;type:jsonb;serializer:json" json:"detail_image_urls"`
	CreatedAt       time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
