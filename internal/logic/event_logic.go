package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventLogic 活动业务逻辑，持有活动状态机
// FUNDING -> CONFIRMED -> COMPLETED；FUNDING -> CANCELLED
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建活动业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEventInput 创建活动入参
type CreateEventInput struct {
	Title             string
	Description       string
	TargetAmount      decimal.Decimal
	HostFeePercentage decimal.Decimal
	FundingDeadline   time.Time
	EventDate         *time.Time
}

// CreateEvent 创建活动，初始状态 FUNDING，发起人为调用者
func (e *EventLogic) CreateEvent(hostID uint, in CreateEventInput) (*model.Event, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: 活动标题不能为空", ErrValidation)
	}
	if !in.TargetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: 目标金额必须大于0", ErrInvalidAmount)
	}
	if in.FundingDeadline.Before(time.Now()) {
		return nil, fmt.Errorf("%w: 凑款截止时间不能早于当前时间", ErrValidation)
	}
	if in.HostFeePercentage.IsNegative() || in.HostFeePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: 手续费比例必须在0到100之间", ErrValidation)
	}

	var host model.User
	if err := e.db.First(&host, hostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	event := model.Event{
		Title:             in.Title,
		Description:       in.Description,
		PublicSlug:        makePublicSlug(in.Title),
		TargetAmount:      in.TargetAmount,
		CurrentAmount:     decimal.Zero,
		HostFeePercentage: in.HostFeePercentage,
		FundingDeadline:   in.FundingDeadline,
		EventDate:         in.EventDate,
		Status:            model.EventStatusFunding,
		HostID:            hostID,
	}

	if err := e.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("创建活动失败: %w", err)
	}

	return &event, nil
}

// makePublicSlug 由标题生成公开链接，随机后缀防撞
func makePublicSlug(title string) string {
	suffix := uuid.NewString()[:6]
	return fmt.Sprintf("%s-%s", slug.Make(title), suffix)
}

// GetEventBySlug 按公开链接获取活动详情（含发起人与参与者）
func (e *EventLogic) GetEventBySlug(publicSlug string) (*model.Event, error) {
	var event model.Event
	err := e.db.Preload("Host").
		Preload("Participations").
		Preload("Participations.User").
		Where("public_slug = ?", publicSlug).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &event, nil
}

// ListPublicEvents 返回凑款中的活动
func (e *EventLogic) ListPublicEvents() ([]model.Event, error) {
	var events []model.Event
	if err := e.db.Preload("Host").
		Where("status = ?", model.EventStatusFunding).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取活动列表失败: %w", err)
	}
	return events, nil
}

// ListEventsByHost 返回发起人的全部活动
func (e *EventLogic) ListEventsByHost(hostID uint) ([]model.Event, error) {
	var events []model.Event
	if err := e.db.Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取发起的活动失败: %w", err)
	}
	return events, nil
}

// UpdateEvent 更新活动基本信息，仅发起人可操作
// 资金字段与状态不走这里
func (e *EventLogic) UpdateEvent(eventID, userID uint, updates map[string]interface{}) (*model.Event, error) {
	allowed := map[string]bool{
		"title":       true,
		"description": true,
		"event_date":  true,
	}
	filtered := make(map[string]interface{})
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: 没有可更新的字段", ErrValidation)
	}

	var event model.Event
	if err := e.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.HostID != userID {
		return nil, ErrUnauthorized
	}

	if err := e.db.Model(&event).Updates(filtered).Error; err != nil {
		return nil, fmt.Errorf("更新活动失败: %w", err)
	}
	return &event, nil
}

// Join 用户参与活动
// 七个步骤在同一个串行化事务内执行，要么全部生效要么全部回滚：
// 校验金额 -> 排除发起人 -> 校验状态 -> 查重参与 -> 校验余额 ->
// 创建参与记录+负数贡献条目 -> 原子累加缓存并按需流转 CONFIRMED
func (e *EventLogic) Join(eventID, userID uint, amount decimal.Decimal) (*model.Event, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var updated model.Event
	err := RunTx(e.db, func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var event model.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		// 发起人不能给自己的活动凑款
		if event.HostID == userID {
			return ErrUnauthorized
		}

		if event.Status != model.EventStatusFunding {
			return ErrNotAcceptingContributions
		}

		ledger := NewLedgerLogic(tx)
		balance, err := ledger.GetBalance(userID)
		if err != nil {
			return err
		}
		if balance.LessThan(amount) {
			return fmt.Errorf("%w: 当前余额 %s，需要 %s",
				ErrInsufficientBalance, balance.StringFixed(2), amount.StringFixed(2))
		}

		participation, err := NewParticipationLogic(tx).RecordParticipation(userID, eventID, amount)
		if err != nil {
			return err
		}

		participationID := participation.ID
		if _, err := ledger.RecordTransaction(RecordTransactionInput{
			UserID:          userID,
			Type:            model.TransactionTypeContribution,
			Status:          model.TransactionStatusCompleted,
			Amount:          amount.Neg(),
			Description:     fmt.Sprintf("参与活动: %s", event.Title),
			EventID:         &event.ID,
			ParticipationID: &participationID,
		}); err != nil {
			return err
		}

		// 缓存金额只做原子累加，避免读改写丢更新
		if err := tx.Model(&model.Event{}).
			Where("id = ?", eventID).
			Update("current_amount", gorm.Expr("current_amount + ?", amount)).Error; err != nil {
			return err
		}

		if err := tx.First(&updated, eventID).Error; err != nil {
			return err
		}

		// 达标即流转 CONFIRMED
		if updated.GoalReached() {
			logger.Info("Event %d reached its goal (%s/%s), confirming",
				eventID, updated.CurrentAmount.String(), updated.TargetAmount.String())
			if err := tx.Model(&updated).
				Update("status", model.EventStatusConfirmed).Error; err != nil {
				return err
			}
			updated.Status = model.EventStatusConfirmed
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// UpdateStatus 发起人手动流转活动状态
// 终态不可再变；流转到 CANCELLED 时在同一事务内批量退款
func (e *EventLogic) UpdateStatus(eventID, userID uint, newStatus model.EventStatus) (*model.Event, error) {
	switch newStatus {
	case model.EventStatusFunding, model.EventStatusConfirmed,
		model.EventStatusCompleted, model.EventStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: 未知状态 %s", ErrValidation, newStatus)
	}

	var updated model.Event
	err := RunTx(e.db, func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.HostID != userID {
			return ErrUnauthorized
		}
		if event.Status.Terminal() {
			return fmt.Errorf("%w: 活动已处于 %s", ErrInvalidStateTransition, event.Status)
		}

		if newStatus == model.EventStatusCancelled {
			logger.Info("Event %d cancelling, issuing mass refund", eventID)
			if _, err := NewRefundLogic(tx).RefundAllTx(tx, &event); err != nil {
				return err
			}
		}

		if err := tx.Model(&event).Update("status", newStatus).Error; err != nil {
			return err
		}

		updated = event
		updated.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Cancel 发起人取消活动：批量退款并置为 CANCELLED
func (e *EventLogic) Cancel(eventID, userID uint) (*model.Event, error) {
	return e.UpdateStatus(eventID, userID, model.EventStatusCancelled)
}

// SettlePayout 结算发起人收款
// 仅发起人可触发；要求 CONFIRMED（FUNDING 且已达标时自动先流转）
// 已收总额从账本重建，不信任 CurrentAmount 缓存
// 这是纯内部入账，真实出金由发起人随后走链上提现
func (e *EventLogic) SettlePayout(eventID, triggeredByUserID uint) (*model.Event, error) {
	var updated model.Event
	err := RunTx(e.db, func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.HostID != triggeredByUserID {
			return ErrUnauthorized
		}

		switch event.Status {
		case model.EventStatusFunding, model.EventStatusConfirmed:
		default:
			return fmt.Errorf("%w: 活动处于 %s，无法结算", ErrInvalidStateTransition, event.Status)
		}

		ledger := NewLedgerLogic(tx)
		collected, err := ledger.EventContributionTotal(eventID)
		if err != nil {
			return err
		}

		if collected.LessThan(event.TargetAmount) {
			return ErrGoalNotMet
		}

		if event.Status == model.EventStatusFunding {
			// 提前达标，先流转 CONFIRMED
			if err := tx.Model(&event).
				Update("status", model.EventStatusConfirmed).Error; err != nil {
				return err
			}
		}

		fee := collected.Mul(event.HostFeePercentage).Div(decimal.NewFromInt(100)).Round(2)
		payout := collected.Sub(fee)
		logger.Info("Settling event %d: collected %s, fee %s, payout %s",
			eventID, collected.String(), fee.String(), payout.String())

		if _, err := ledger.RecordTransaction(RecordTransactionInput{
			UserID:      event.HostID,
			Type:        model.TransactionTypeHostPayout,
			Status:      model.TransactionStatusCompleted,
			Amount:      payout, // 正数，给发起人入账
			Description: fmt.Sprintf("活动结算收款: %s", event.Title),
			EventID:     &event.ID,
			Metas: model.Metas{
				"totalCollected": collected.String(),
				"fee":            fee.String(),
				"payoutAmount":   payout.String(),
			},
		}); err != nil {
			return err
		}

		if err := tx.Model(&event).Update("status", model.EventStatusCompleted).Error; err != nil {
			return err
		}

		updated = event
		updated.Status = model.EventStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
