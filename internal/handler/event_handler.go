package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EventHandler struct {
	eventLogic *logic.EventLogic
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{
		eventLogic: logic.NewEventLogic(db),
	}
}

// CreateEvent 创建活动
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req struct {
		Title             string          `json:"title"`
		Description       string          `json:"description"`
		TargetAmount      decimal.Decimal `json:"targetAmount"`
		HostFeePercentage decimal.Decimal `json:"hostFeePercentage"`
		FundingDeadline   time.Time       `json:"fundingDeadline"`
		EventDate         *time.Time      `json:"eventDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	event, err := h.eventLogic.CreateEvent(currentUserID(c), logic.CreateEventInput{
		Title:             req.Title,
		Description:       req.Description,
		TargetAmount:      req.TargetAmount,
		HostFeePercentage: req.HostFeePercentage,
		FundingDeadline:   req.FundingDeadline,
		EventDate:         req.EventDate,
	})
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", gin.H{"event": event})
}

// GetPublicEvents 获取公开活动列表
func (h *EventHandler) GetPublicEvents(c *gin.Context) {
	events, err := h.eventLogic.ListPublicEvents()
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", gin.H{"events": events})
}

// GetMyEvents 获取当前用户发起的活动列表
func (h *EventHandler) GetMyEvents(c *gin.Context) {
	events, err := h.eventLogic.ListEventsByHost(currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", gin.H{"events": events})
}

// GetEvent 按公开链接获取活动详情
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventLogic.GetEventBySlug(c.Param("slug"))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", gin.H{"event": event})
}

// UpdateEvent 更新活动基本信息，仅发起人可操作
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		EventDate   *time.Time `json:"eventDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.EventDate != nil {
		updates["event_date"] = *req.EventDate
	}

	event, err := h.eventLogic.UpdateEvent(eventID, currentUserID(c), updates)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动更新成功", gin.H{"event": event})
}

// JoinEvent 出资加入活动
func (h *EventHandler) JoinEvent(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	event, err := h.eventLogic.Join(eventID, currentUserID(c), req.Amount)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "加入活动成功", gin.H{"event": event})
}

// UpdateEventStatus 流转活动状态，仅发起人可操作
func (h *EventHandler) UpdateEventStatus(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	event, err := h.eventLogic.UpdateStatus(eventID, currentUserID(c), model.EventStatus(req.Status))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动状态更新成功", gin.H{"event": event})
}

// CancelEvent 取消活动并退款所有参与者
func (h *EventHandler) CancelEvent(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		return
	}

	event, err := h.eventLogic.Cancel(eventID, currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已取消", gin.H{"event": event})
}

// SettleEvent 结算活动，给发起人放款
func (h *EventHandler) SettleEvent(c *gin.Context) {
	eventID, err := parseID(c, "id")
	if err != nil {
		return
	}

	event, err := h.eventLogic.SettlePayout(eventID, currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动结算成功", gin.H{"event": event})
}

// parseID 解析路径中的数字ID，失败时已写入响应
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径ID")
		return 0, errors.New("invalid path id")
	}
	return uint(id), nil
}
