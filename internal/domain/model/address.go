package model

import "time"

// 配送先住所。1つの注文が1つを持つ。
type Address struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//受取人
	Addressee string `gorm:"type:varchar(255);not null" json:"addressee"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//住所
	Address1 string `gorm:"type:varchar(255);not null" json:"address1"`

	//詳細住所
	Address2 string `gorm:"type:varchar(255)" json:"address2"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
