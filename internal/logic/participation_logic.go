package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ParticipationLogic 参与登记业务逻辑
// 登记本身不动钱，资金事实始终在账本里
type ParticipationLogic struct {
	db *gorm.DB
}

// NewParticipationLogic 创建参与登记业务逻辑
func NewParticipationLogic(db *gorm.DB) *ParticipationLogic {
	return &ParticipationLogic{db: db}
}

// RecordParticipation 登记一条参与记录
// (user, event) 已存在时返回 ErrAlreadyParticipating
// 查重和插入必须与账本写入在同一事务内，唯一索引兜底并发窗口
func (p *ParticipationLogic) RecordParticipation(userID, eventID uint, amount decimal.Decimal) (*model.Participation, error) {
	var existing model.Participation
	err := p.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyParticipating
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询参与记录失败: %w", err)
	}

	participation := model.Participation{
		UserID:  userID,
		EventID: eventID,
		Amount:  amount,
	}
	if err := p.db.Create(&participation).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyParticipating
		}
		return nil, fmt.Errorf("创建参与记录失败: %w", err)
	}

	return &participation, nil
}

// ListForEvent 返回活动的全部参与记录
func (p *ParticipationLogic) ListForEvent(eventID uint) ([]model.Participation, error) {
	var participations []model.Participation
	if err := p.db.Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&participations).Error; err != nil {
		return nil, fmt.Errorf("获取活动参与记录失败: %w", err)
	}
	return participations, nil
}

// isUniqueViolation 识别唯一索引冲突
// postgres: SQLSTATE 23505；sqlite（测试库）: UNIQUE constraint failed
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
