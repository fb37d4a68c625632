package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event 凑款活动模型
type Event struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	PublicSlug  string `json:"public_slug" gorm:"uniqueIndex;not null"`

	// 凑款信息，CurrentAmount 只是并发安全的计数缓存，真实金额以账本为准
	TargetAmount      decimal.Decimal `json:"target_amount" gorm:"type:decimal(20,2);not null"`
	CurrentAmount     decimal.Decimal `json:"current_amount" gorm:"type:decimal(20,2);not null;default:0"`
	HostFeePercentage decimal.Decimal `json:"host_fee_percentage" gorm:"type:decimal(5,2);not null;default:0"`

	// 时间信息
	FundingDeadline time.Time  `json:"funding_deadline" gorm:"not null;index"`
	EventDate       *time.Time `json:"event_date"`

	// 状态
	Status EventStatus `json:"status" gorm:"not null;default:'FUNDING';index"`

	// 发起人
	HostID uint `json:"host_id" gorm:"not null;index"`

	// 定时清扫的失败记录，成功处理后清零
	SweepAttempts int    `json:"sweep_attempts" gorm:"not null;default:0"`
	SweepError    string `json:"sweep_error" gorm:"type:text"`

	// 关联
	Host           *User           `json:"host,omitempty" gorm:"foreignKey:HostID"`
	Participations []Participation `json:"participations,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// EventStatus 活动状态机
// FUNDING -> CONFIRMED -> COMPLETED；FUNDING -> CANCELLED
// COMPLETED 与 CANCELLED 为终态
type EventStatus string

const (
	EventStatusFunding   EventStatus = "FUNDING"   // 凑款中
	EventStatusConfirmed EventStatus = "CONFIRMED" // 达标待结算
	EventStatusCompleted EventStatus = "COMPLETED" // 已结算给发起人
	EventStatusCancelled EventStatus = "CANCELLED" // 已取消并退款
)

// Terminal 判断是否终态
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// GoalReached 判断缓存金额是否达标
func (e *Event) GoalReached() bool {
	return e.CurrentAmount.GreaterThanOrEqual(e.TargetAmount)
}
