package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型，余额不落库，始终由账本推导
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	Nicename string `json:"nicename"`
	Email    string `json:"email" gorm:"uniqueIndex"`

	// 法币入金账号（Juno CLABE）
	FundingClabe *string `json:"funding_clabe" gorm:"uniqueIndex"`

	// 关联
	Transactions    []Transaction   `json:"transactions,omitempty" gorm:"foreignKey:UserID"`
	Participations  []Participation `json:"participations,omitempty" gorm:"foreignKey:UserID"`
	CryptoAddresses []CryptoAddress `json:"crypto_addresses,omitempty" gorm:"foreignKey:UserID"`
}
