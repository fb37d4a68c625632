package task

import (
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/config"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// WithdrawalReconcileJob 提现对账任务
// 把长时间停留在 PENDING 且从未发出通道请求的提现置为 FAILED，释放占用的余额
type WithdrawalReconcileJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewWithdrawalReconcileJob 创建提现对账任务
func NewWithdrawalReconcileJob(db *gorm.DB, cfg *config.Config) *WithdrawalReconcileJob {
	return &WithdrawalReconcileJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *WithdrawalReconcileJob) GetName() string {
	return "withdrawal_reconciler"
}

// GetSchedule 获取调度配置
func (j *WithdrawalReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.ReconcileInterval) * time.Second)
}

// Execute 执行任务
func (j *WithdrawalReconcileJob) Execute() {
	j.Reconcile(time.Now())
}

// Reconcile 处理创建时间早于超时阈值的 PENDING 提现
// 只自动失败幂等键为空的记录：键为空说明通道请求从未发出，可以安全释放资金；
// 键已落库的记录请求可能已送达，留给人工对账，不自动失败
func (j *WithdrawalReconcileJob) Reconcile(now time.Time) {
	cutoff := now.Add(-time.Duration(j.config.Withdrawal.PendingMaxAge) * time.Second)

	var ambiguous int64
	err := j.db.Model(&model.CryptoWithdrawal{}).
		Where("status = ? AND idempotency_key IS NOT NULL AND created_at < ?",
			model.WithdrawalStatusPending, cutoff).
		Count(&ambiguous).Error
	if err != nil {
		logger.Error("Failed to count dispatched pending withdrawals: %v", err)
		return
	}
	if ambiguous > 0 {
		logger.Warn("Found %d stale pending withdrawals already dispatched to the rail, manual review required", ambiguous)
	}

	var withdrawals []model.CryptoWithdrawal
	err = j.db.Where("status = ? AND idempotency_key IS NULL AND created_at < ?",
		model.WithdrawalStatusPending, cutoff).
		Find(&withdrawals).Error
	if err != nil {
		logger.Error("Failed to fetch stale withdrawals: %v", err)
		return
	}

	if len(withdrawals) == 0 {
		return
	}

	logger.Info("Found %d stale pending withdrawals to reconcile", len(withdrawals))

	failed := 0
	for _, w := range withdrawals {
		if err := j.failWithdrawal(w); err != nil {
			logger.Error("Failed to reconcile withdrawal %d: %v", w.ID, err)
			continue
		}
		failed++
	}

	logger.Info("Withdrawal reconcile completed, failed %d of %d stale withdrawals",
		failed, len(withdrawals))
}

// failWithdrawal 在一个事务内同时置失败提现记录和对应的流水
func (j *WithdrawalReconcileJob) failWithdrawal(w model.CryptoWithdrawal) error {
	return logic.RunTx(j.db, func(tx *gorm.DB) error {
		var current model.CryptoWithdrawal
		if err := tx.First(&current, w.ID).Error; err != nil {
			return err
		}

		// 幂等：对账中途被提现流程终结或已发出通道请求的就跳过
		if current.Status != model.WithdrawalStatusPending || current.IdempotencyKey != nil {
			return nil
		}

		reason := "reconciler: request never dispatched to provider"
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"status":         model.WithdrawalStatusFailed,
			"failure_reason": reason,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", current.TransactionID, model.TransactionStatusPending).
			Update("status", model.TransactionStatusFailed).Error
	})
}
