package model

import (
	"time"

	"gorm.io/gorm"
)

// CryptoAddress 用户的链上收款地址
type CryptoAddress struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	UserID     uint   `json:"user_id" gorm:"not null;index"`
	Address    string `json:"address" gorm:"not null"` // 统一存小写
	Blockchain string `json:"blockchain" gorm:"not null;default:'ARBITRUM'"`
	Label      string `json:"label" gorm:"not null"`
	IsDefault  bool   `json:"is_default" gorm:"not null;default:false"`
	Status     string `json:"status" gorm:"not null;default:'ACTIVE'"`
}

// CryptoAddress 状态
const (
	CryptoAddressStatusActive   = "ACTIVE"
	CryptoAddressStatusDisabled = "DISABLED"
)
