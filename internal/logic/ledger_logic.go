package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerLogic 账本业务逻辑
// 账本是唯一的资金事实来源，余额始终由 COMPLETED 条目求和推导
type LedgerLogic struct {
	db *gorm.DB
}

// NewLedgerLogic 创建账本业务逻辑
// 传入事务句柄时，所有读写都落在该事务内
func NewLedgerLogic(db *gorm.DB) *LedgerLogic {
	return &LedgerLogic{db: db}
}

// RecordTransactionInput 账本条目入参
type RecordTransactionInput struct {
	UserID          uint
	Type            model.TransactionType
	Status          model.TransactionStatus
	Amount          decimal.Decimal // 带符号：正=入账，负=出账
	Description     string
	EventID         *uint
	ParticipationID *uint
	ExternalRef     *string
	Metas           model.Metas
}

// RecordTransaction 追加一条不可变账本条目
func (l *LedgerLogic) RecordTransaction(in RecordTransactionInput) (*model.Transaction, error) {
	if in.Amount.IsZero() {
		return nil, fmt.Errorf("%w: 账本条目金额不能为零", ErrInvalidAmount)
	}
	if !model.ValidType(in.Type) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, in.Type)
	}
	if in.Status == "" {
		in.Status = model.TransactionStatusCompleted
	}

	transaction := model.Transaction{
		UserID:          in.UserID,
		Type:            in.Type,
		Status:          in.Status,
		Amount:          in.Amount,
		Description:     in.Description,
		EventID:         in.EventID,
		ParticipationID: in.ParticipationID,
		ExternalRef:     in.ExternalRef,
		Metas:           in.Metas,
	}

	if err := l.db.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("创建账本条目失败: %w", err)
	}

	return &transaction, nil
}

// GetBalance 推导用户余额：所有 COMPLETED 条目带符号求和
// 没有任何条目的用户返回精确的十进制零
func (l *LedgerLogic) GetBalance(userID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := l.db.Model(&model.Transaction{}).
		Where("user_id = ? AND status = ?", userID, model.TransactionStatusCompleted).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("获取用户余额失败: %w", err)
	}

	balance := decimal.Zero
	for _, a := range amounts {
		balance = balance.Add(a)
	}
	return balance, nil
}

// PendingWithdrawalTotal 统计 PENDING 提现占用的资金（绝对值）
// 可用余额 = 推导余额 - 该值，用于挡住并发重复提现
func (l *LedgerLogic) PendingWithdrawalTotal(userID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := l.db.Model(&model.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, model.TransactionTypeWithdrawalCrypto, model.TransactionStatusPending).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("获取待处理提现总额失败: %w", err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Abs())
	}
	return total, nil
}

// ListHistory 按时间倒序分页返回用户账本
func (l *LedgerLogic) ListHistory(userID uint, limit, offset int) ([]model.Transaction, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := l.db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取账本总数失败: %w", err)
	}

	var transactions []model.Transaction
	if err := l.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("获取账本历史失败: %w", err)
	}

	return transactions, total, nil
}

// DepositPayload 入金 webhook 载荷（由 handler 从通道回调映射而来）
type DepositPayload struct {
	ExternalID string
	Amount     decimal.Decimal
	Clabe      string
	Raw        model.Metas
}

// ProcessDeposit 处理法币入金回调：按 CLABE 找到用户并写入 DEPOSIT 条目
// 同一外部流水号重复回调时幂等返回已有条目
func (l *LedgerLogic) ProcessDeposit(payload DepositPayload) (*model.Transaction, error) {
	if payload.ExternalID == "" || payload.Clabe == "" {
		return nil, fmt.Errorf("%w: 入金回调缺少必要字段", ErrValidation)
	}
	if !payload.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: 入金金额必须大于0", ErrInvalidAmount)
	}

	var result *model.Transaction
	err := RunTx(l.db, func(tx *gorm.DB) error {
		// 幂等：同一外部流水号只入账一次
		var existing model.Transaction
		err := tx.Where("external_ref = ?", payload.ExternalID).First(&existing).Error
		if err == nil {
			logger.Info("Deposit %s already processed as transaction %d, skipping", payload.ExternalID, existing.ID)
			result = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var user model.User
		if err := tx.Where("funding_clabe = ?", payload.Clabe).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: CLABE %s 未绑定用户", ErrUserNotFound, payload.Clabe)
			}
			return err
		}

		externalRef := payload.ExternalID
		created, err := NewLedgerLogic(tx).RecordTransaction(RecordTransactionInput{
			UserID:      user.ID,
			Type:        model.TransactionTypeDeposit,
			Status:      model.TransactionStatusCompleted,
			Amount:      payload.Amount,
			Description: "SPEI 入金",
			ExternalRef: &externalRef,
			Metas:       model.Metas{"junoPayload": map[string]interface{}(payload.Raw)},
		})
		if err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FinancialStats 用户资金统计
type FinancialStats struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalDeposited    decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn    decimal.Decimal `json:"total_withdrawn"`
	LastTransaction   *time.Time      `json:"last_transaction"`
}

// GetFinancialStats 汇总用户的入金与出金
func (l *LedgerLogic) GetFinancialStats(userID uint) (*FinancialStats, error) {
	var transactions []model.Transaction
	err := l.db.Where("user_id = ? AND status = ?", userID, model.TransactionStatusCompleted).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("获取资金统计失败: %w", err)
	}

	stats := FinancialStats{
		TotalTransactions: int64(len(transactions)),
		TotalDeposited:    decimal.Zero,
		TotalWithdrawn:    decimal.Zero,
	}

	for i, t := range transactions {
		if i == 0 {
			created := t.CreatedAt
			stats.LastTransaction = &created
		}
		switch t.Type {
		case model.TransactionTypeDeposit:
			stats.TotalDeposited = stats.TotalDeposited.Add(t.Amount)
		case model.TransactionTypeWithdrawalCrypto, model.TransactionTypeHostPayout:
			stats.TotalWithdrawn = stats.TotalWithdrawn.Add(t.Amount.Abs())
		}
	}

	return &stats, nil
}

// EventContributionTotal 从账本重建某活动已收到的贡献总额（绝对值求和）
// 结算逻辑只认这里的结果，不认 Event.CurrentAmount 缓存
func (l *LedgerLogic) EventContributionTotal(eventID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := l.db.Model(&model.Transaction{}).
		Where("event_id = ? AND type = ? AND status = ?",
			eventID, model.TransactionTypeContribution, model.TransactionStatusCompleted).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("获取活动贡献总额失败: %w", err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Abs())
	}
	return total, nil
}
