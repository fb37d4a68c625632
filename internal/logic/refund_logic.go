package logic

import (
	"errors"
	"fmt"

	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundLogic 批量退款业务逻辑
type RefundLogic struct {
	db *gorm.DB
}

// NewRefundLogic 创建批量退款业务逻辑
func NewRefundLogic(db *gorm.DB) *RefundLogic {
	return &RefundLogic{db: db}
}

// RefundSummary 单个活动的退款结果
type RefundSummary struct {
	EventID       uint            `json:"event_id"`
	RefundedCount int             `json:"refunded_count"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
	Issues        []string        `json:"issues,omitempty"` // 逐人记录的校验问题，不中断批次
}

// RefundAllTx 在调用方已开启的事务内给活动的全部参与者退款
// 退款金额以原始 EVENT_CONTRIBUTION 条目的绝对值为准（容忍历史数据与
// 参与记录不一致），找不到原始条目时退参与记录金额并记录问题。
// 单个活动的退款在资金上是一体的：任何意外错误会让整个事务回滚，
// 活动保持原状态，等下一次清扫重试。
func (r *RefundLogic) RefundAllTx(tx *gorm.DB, event *model.Event) (*RefundSummary, error) {
	participations, err := NewParticipationLogic(tx).ListForEvent(event.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Refunding %d participations for event %d", len(participations), event.ID)

	ledger := NewLedgerLogic(tx)
	summary := RefundSummary{
		EventID:       event.ID,
		TotalRefunded: decimal.Zero,
	}

	for _, p := range participations {
		refundAmount, issue, err := r.resolveRefundAmount(tx, event.ID, p)
		if err != nil {
			return nil, err
		}
		if issue != "" {
			summary.Issues = append(summary.Issues, issue)
		}

		participationID := p.ID
		eventID := event.ID
		_, err = ledger.RecordTransaction(RecordTransactionInput{
			UserID:          p.UserID,
			Type:            model.TransactionTypeRefund,
			Status:          model.TransactionStatusCompleted,
			Amount:          refundAmount, // 正数，冲销原始负数条目
			Description:     fmt.Sprintf("活动取消退款: %s", event.Title),
			EventID:         &eventID,
			ParticipationID: &participationID,
		})
		if err != nil {
			return nil, err
		}

		summary.RefundedCount++
		summary.TotalRefunded = summary.TotalRefunded.Add(refundAmount)
	}

	// 守恒校验：退款总额必须精确等于账本里贡献总额
	// 出现过兜底退款（原始条目缺失）时账本本身已不自洽，跳过强校验
	if len(summary.Issues) == 0 {
		contributed, err := ledger.EventContributionTotal(event.ID)
		if err != nil {
			return nil, err
		}
		if !summary.TotalRefunded.Equal(contributed) {
			return nil, fmt.Errorf("退款守恒校验失败: 退款 %s != 贡献 %s",
				summary.TotalRefunded.String(), contributed.String())
		}
	}

	return &summary, nil
}

// resolveRefundAmount 定位参与记录的原始贡献条目并取其绝对值
func (r *RefundLogic) resolveRefundAmount(tx *gorm.DB, eventID uint, p model.Participation) (decimal.Decimal, string, error) {
	var original model.Transaction
	err := tx.Where(
		"user_id = ? AND event_id = ? AND participation_id = ? AND type = ? AND status = ?",
		p.UserID, eventID, p.ID,
		model.TransactionTypeContribution, model.TransactionStatusCompleted,
	).First(&original).Error

	if err == nil {
		return original.Amount.Abs(), "", nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 历史数据缺失原始条目，退参与记录金额兜底
		issue := fmt.Sprintf("参与记录 %d 缺少原始贡献条目，按参与金额 %s 退款", p.ID, p.Amount.String())
		logger.Warn("Participation %d of event %d has no originating contribution entry", p.ID, eventID)
		return p.Amount, issue, nil
	}
	return decimal.Zero, "", fmt.Errorf("查询原始贡献条目失败: %w", err)
}
