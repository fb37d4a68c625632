package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Participation 参与记录，同一用户对同一活动只能参与一次
// 与其 EVENT_CONTRIBUTION 账本条目在同一事务内创建，创建后不再修改
type Participation struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	UserID  uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_participation_user_event"`
	EventID uint            `json:"event_id" gorm:"not null;uniqueIndex:idx_participation_user_event"`
	Amount  decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`

	// 关联
	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Event *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}
