package task

import (
	"sync"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/config"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// maxSweepAttempts 连续失败这么多次后不再自动处理，等人工介入
const maxSweepAttempts = 5

// EventDeadlineJob 活动截止清扫任务
// 把过了凑款截止时间仍在 FUNDING 的活动推进到 CONFIRMED 或 CANCELLED
type EventDeadlineJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewEventDeadlineJob 创建活动截止清扫任务
func NewEventDeadlineJob(db *gorm.DB, cfg *config.Config) *EventDeadlineJob {
	return &EventDeadlineJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *EventDeadlineJob) GetName() string {
	return "event_deadline_sweeper"
}

// GetSchedule 获取调度配置
func (j *EventDeadlineJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.SweepInterval) * time.Second)
}

// Execute 执行任务
func (j *EventDeadlineJob) Execute() {
	j.Sweep(time.Now())
}

// Sweep 处理截止时间早于 now 的 FUNDING 活动
// 单个活动失败不影响其余活动，失败的活动记录错误等下次重试
func (j *EventDeadlineJob) Sweep(now time.Time) {
	logger.Info("Starting event deadline sweep")

	var events []model.Event
	err := j.db.Where("status = ? AND funding_deadline < ? AND sweep_attempts < ?",
		model.EventStatusFunding, now, maxSweepAttempts).
		Find(&events).Error
	if err != nil {
		logger.Error("Failed to fetch expired events: %v", err)
		return
	}

	if len(events) == 0 {
		logger.Info("No expired events to process")
		return
	}

	logger.Info("Found %d expired events to process", len(events))

	// 临时协程池并发处理，池子随批次建随批次放
	pool, err := ants.NewPool(len(events))
	if err != nil {
		logger.Error("Failed to create worker pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, event := range events {
		eventID := event.ID
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			j.processEvent(eventID)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit event %d to pool: %v", eventID, err)
		}
	}
	wg.Wait()

	logger.Info("Event deadline sweep completed")
}

// processEvent 在串行化事务内推进单个活动
func (j *EventDeadlineJob) processEvent(eventID uint) {
	err := logic.RunTx(j.db, func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			return err
		}

		// 幂等：清扫中途被用户操作流转走了就跳过
		if event.Status != model.EventStatusFunding {
			logger.Info("Event %d already %s, skipping", eventID, event.Status)
			return nil
		}

		if event.GoalReached() {
			logger.Info("Event %d met its goal, confirming", eventID)
			return tx.Model(&event).Updates(map[string]interface{}{
				"status":         model.EventStatusConfirmed,
				"sweep_attempts": 0,
				"sweep_error":    "",
			}).Error
		}

		logger.Info("Event %d failed to meet its goal, cancelling and refunding", eventID)
		if _, err := logic.NewRefundLogic(tx).RefundAllTx(tx, &event); err != nil {
			return err
		}
		return tx.Model(&event).Updates(map[string]interface{}{
			"status":         model.EventStatusCancelled,
			"sweep_attempts": 0,
			"sweep_error":    "",
		}).Error
	})

	if err != nil {
		logger.Error("Failed to process event %d: %v", eventID, err)
		j.recordFailure(eventID, err)
	}
}

// recordFailure 在失败事务之外记录清扫错误，供下次重试与告警
func (j *EventDeadlineJob) recordFailure(eventID uint, cause error) {
	err := j.db.Model(&model.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"sweep_attempts": gorm.Expr("sweep_attempts + 1"),
			"sweep_error":    cause.Error(),
		}).Error
	if err != nil {
		logger.Error("Failed to record sweep failure for event %d: %v", eventID, err)
		return
	}

	var event model.Event
	if err := j.db.First(&event, eventID).Error; err == nil && event.SweepAttempts >= maxSweepAttempts {
		logger.Error("Event %d exceeded %d sweep attempts, needs manual intervention: %s",
			eventID, maxSweepAttempts, event.SweepError)
	}
}
