package model

import (
	"time"

	"gorm.io/gorm"
)

// EventUpdate 活动动态
// 发起人在活动页上发布的进展帖，参与者可以在下面评论
type EventUpdate struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	EventID  uint   `json:"event_id" gorm:"not null;index"`
	AuthorID uint   `json:"author_id" gorm:"not null;index"`
	Content  string `json:"content" gorm:"type:text;not null"`

	// 列表页直接带出，不落库
	CommentCount int64 `json:"comment_count" gorm:"-"`

	// 关联
	Author   *User           `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Comments []UpdateComment `json:"comments,omitempty" gorm:"foreignKey:UpdateID;constraint:OnDelete:CASCADE"`
}

// UpdateComment 活动动态下的评论
type UpdateComment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	UpdateID uint   `json:"update_id" gorm:"not null;index"`
	AuthorID uint   `json:"author_id" gorm:"not null;index"`
	Content  string `json:"content" gorm:"type:text;not null"`

	// 关联
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
