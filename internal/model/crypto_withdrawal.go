package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CryptoWithdrawal 链上提现记录
// 先以 PENDING 落库占住资金，外部通道调用成功后才置为 COMPLETED
type CryptoWithdrawal struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	UserID          uint            `json:"user_id" gorm:"not null;index"`
	CryptoAddressID uint            `json:"crypto_address_id" gorm:"not null"`
	TransactionID   uint            `json:"transaction_id" gorm:"not null;index"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Asset           string          `json:"asset" gorm:"not null;default:'MXNB'"`
	Blockchain      string          `json:"blockchain" gorm:"not null"`
	Status          string          `json:"status" gorm:"not null;default:'PENDING';index"`

	DestinationAddress string  `json:"destination_address" gorm:"not null"`
	IdempotencyKey     *string `json:"idempotency_key" gorm:"uniqueIndex"` // 调用外部通道前先落库，为空代表请求从未发出
	ProviderID         *string `json:"provider_id"`                        // 外部通道返回的流水号
	FailureReason      string  `json:"failure_reason" gorm:"type:text"`
}

// CryptoWithdrawal 状态
const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusFailed    = "FAILED"
)
