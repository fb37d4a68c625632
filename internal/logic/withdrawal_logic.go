package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalLogic 链上提现业务逻辑
// 顺序：先落 PENDING 账本条目占住资金，再在事务外调用外部通道，
// 最后按结果把条目翻成 COMPLETED 或 FAILED。
// 通道调用绝不允许发生在打开的数据库事务内。
type WithdrawalLogic struct {
	db   *gorm.DB
	rail gateway.PaymentRail
}

// NewWithdrawalLogic 创建链上提现业务逻辑
func NewWithdrawalLogic(db *gorm.DB, rail gateway.PaymentRail) *WithdrawalLogic {
	return &WithdrawalLogic{db: db, rail: rail}
}

// WithdrawInput 提现入参
type WithdrawInput struct {
	AddressID  uint
	Amount     decimal.Decimal
	Blockchain string
}

// Withdraw 发起一笔链上提现
func (w *WithdrawalLogic) Withdraw(ctx context.Context, userID uint, in WithdrawInput) (*model.CryptoWithdrawal, error) {
	if in.AddressID == 0 {
		return nil, fmt.Errorf("%w: 提现地址不能为空", ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Blockchain == "" {
		in.Blockchain = "ARBITRUM"
	}

	// 第一阶段：校验并落 PENDING 记录（占住资金）
	var (
		withdrawal  model.CryptoWithdrawal
		transaction *model.Transaction
		address     model.CryptoAddress
	)
	err := RunTx(w.db, func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		err := tx.Where("id = ? AND user_id = ? AND status = ?",
			in.AddressID, userID, model.CryptoAddressStatusActive).First(&address).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAddressNotFound
			}
			return err
		}
		if address.Blockchain != strings.ToUpper(in.Blockchain) {
			return fmt.Errorf("%w: 地址所在链不匹配，期望 %s 实际 %s",
				ErrValidation, strings.ToUpper(in.Blockchain), address.Blockchain)
		}

		// 可用余额 = 推导余额 - PENDING 提现占用
		ledger := NewLedgerLogic(tx)
		balance, err := ledger.GetBalance(userID)
		if err != nil {
			return err
		}
		reserved, err := ledger.PendingWithdrawalTotal(userID)
		if err != nil {
			return err
		}
		available := balance.Sub(reserved)
		if available.LessThan(in.Amount) {
			return fmt.Errorf("%w: 可用余额 %s，需要 %s",
				ErrInsufficientBalance, available.StringFixed(2), in.Amount.StringFixed(2))
		}

		transaction, err = ledger.RecordTransaction(RecordTransactionInput{
			UserID:      userID,
			Type:        model.TransactionTypeWithdrawalCrypto,
			Status:      model.TransactionStatusPending,
			Amount:      in.Amount.Neg(),
			Description: fmt.Sprintf("提现 %s MXNB 到 %s", in.Amount.StringFixed(2), address.Label),
		})
		if err != nil {
			return err
		}

		withdrawal = model.CryptoWithdrawal{
			UserID:             userID,
			CryptoAddressID:    address.ID,
			TransactionID:      transaction.ID,
			Amount:             in.Amount,
			Asset:              "MXNB",
			Blockchain:         address.Blockchain,
			Status:             model.WithdrawalStatusPending,
			DestinationAddress: address.Address,
		}
		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		return nil, err
	}

	// 第二阶段：事务外调用外部通道
	// 发送前先把幂等键落库：对账任务只自动失败 idempotency_key 为空的记录，
	// 键已落库但没有通道单号的记录可能已经上链，留给人工对账
	idempotencyKey := uuid.NewString()
	if err := w.db.Model(&withdrawal).Update("idempotency_key", idempotencyKey).Error; err != nil {
		logger.Error("Failed to persist idempotency key for withdrawal %d: %v", withdrawal.ID, err)
		if ferr := w.finalize(transaction.ID, withdrawal.ID, false, nil, "failed to persist idempotency key"); ferr != nil {
			logger.Error("Failed to mark withdrawal %d as failed: %v", withdrawal.ID, ferr)
		}
		return nil, err
	}

	result, railErr := w.rail.CreateCryptoWithdrawal(ctx, gateway.WithdrawalRequest{
		Address:        address.Address,
		Amount:         in.Amount.StringFixed(2),
		Asset:          "MXNB",
		Blockchain:     address.Blockchain,
		IdempotencyKey: idempotencyKey,
	})

	// 第三阶段：按结果翻转 PENDING 记录
	if railErr != nil {
		logger.Error("Rail withdrawal failed for user %d: %v", userID, railErr)
		if err := w.finalize(transaction.ID, withdrawal.ID, false, nil, railErr.Error()); err != nil {
			// 翻转失败交给对账任务兜底
			logger.Error("Failed to mark withdrawal %d as failed: %v", withdrawal.ID, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrExternalRail, railErr)
	}

	if err := w.finalize(transaction.ID, withdrawal.ID, true, result, ""); err != nil {
		return nil, err
	}

	withdrawal.Status = model.WithdrawalStatusCompleted
	withdrawal.IdempotencyKey = &idempotencyKey
	withdrawal.ProviderID = &result.ProviderID
	return &withdrawal, nil
}

// finalize 把 PENDING 提现翻成终态
func (w *WithdrawalLogic) finalize(transactionID, withdrawalID uint, success bool, result *gateway.WithdrawalResult, reason string) error {
	return RunTx(w.db, func(tx *gorm.DB) error {
		if success {
			if err := tx.Model(&model.Transaction{}).
				Where("id = ? AND status = ?", transactionID, model.TransactionStatusPending).
				Updates(map[string]interface{}{
					"status": model.TransactionStatusCompleted,
					"metas":  model.Metas{"junoResponse": result.Payload, "providerId": result.ProviderID},
				}).Error; err != nil {
				return err
			}
			return tx.Model(&model.CryptoWithdrawal{}).
				Where("id = ?", withdrawalID).
				Updates(map[string]interface{}{
					"status":      model.WithdrawalStatusCompleted,
					"provider_id": result.ProviderID,
				}).Error
		}

		if err := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", transactionID, model.TransactionStatusPending).
			Update("status", model.TransactionStatusFailed).Error; err != nil {
			return err
		}
		return tx.Model(&model.CryptoWithdrawal{}).
			Where("id = ?", withdrawalID).
			Updates(map[string]interface{}{
				"status":         model.WithdrawalStatusFailed,
				"failure_reason": reason,
			}).Error
	})
}

// ListWithdrawals 分页返回用户提现记录
func (w *WithdrawalLogic) ListWithdrawals(userID uint, limit, offset int) ([]model.CryptoWithdrawal, int64, error) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := w.db.Model(&model.CryptoWithdrawal{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var withdrawals []model.CryptoWithdrawal
	if err := w.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}
