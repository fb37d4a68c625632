package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction 账本条目，带符号金额（正=入账，负=出账）
// COMPLETED 之后不可修改，修正只能追加反向条目
type Transaction struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	UserID uint              `json:"user_id" gorm:"not null;index"`
	Type   TransactionType   `json:"type" gorm:"not null"`
	Status TransactionStatus `json:"status" gorm:"not null;default:'PENDING';index"`
	Amount decimal.Decimal   `json:"amount" gorm:"type:decimal(20,2);not null"`

	Description string `json:"description"`

	// 外部流水号（入金 webhook 去重用）
	ExternalRef *string `json:"external_ref" gorm:"uniqueIndex"`

	// 关联外键
	EventID         *uint `json:"event_id" gorm:"index"`
	ParticipationID *uint `json:"participation_id" gorm:"index"`

	// 追溯用元数据（外部回执等）
	Metas Metas `json:"metas" gorm:"type:jsonb"`

	// 关联
	Event *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}

// TransactionType 账本条目类型
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "DEPOSIT"            // 法币入金
	TransactionTypeContribution     TransactionType = "EVENT_CONTRIBUTION" // 参与活动（出账）
	TransactionTypeRefund           TransactionType = "EVENT_REFUND"       // 活动失败退款（入账）
	TransactionTypeHostPayout       TransactionType = "HOST_PAYOUT"        // 活动成功结算给发起人（入账）
	TransactionTypeWithdrawalCrypto TransactionType = "WITHDRAWAL_CRYPTO"  // 链上提现（出账）
)

// TransactionStatus 账本条目状态
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// ValidType 判断条目类型是否合法
func ValidType(t TransactionType) bool {
	switch t {
	case TransactionTypeDeposit,
		TransactionTypeContribution,
		TransactionTypeRefund,
		TransactionTypeHostPayout,
		TransactionTypeWithdrawalCrypto:
		return true
	}
	return false
}
