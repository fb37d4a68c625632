package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/0xjesus/bachata-connect-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WebhookHandler struct {
	ledgerLogic *logic.LedgerLogic
	rail        gateway.PaymentRail
}

func NewWebhookHandler(db *gorm.DB, rail gateway.PaymentRail) *WebhookHandler {
	return &WebhookHandler{
		ledgerLogic: logic.NewLedgerLogic(db),
		rail:        rail,
	}
}

// junoWebhookPayload Juno 回调报文
type junoWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Transaction *junoTransaction `json:"transaction"`
	} `json:"data"`
}

type junoTransaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Destination struct {
		AccountNumber string `json:"account_number"`
	} `json:"destination"`
}

// HandleJunoWebhook 处理 Juno 入金回调
// 处理失败也返回 200，避免通道无限重试；错误记日志等人工对账
func (h *WebhookHandler) HandleJunoWebhook(c *gin.Context) {
	var payload junoWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Error("Failed to parse Juno webhook payload: %v", err)
		SuccessResponse(c, http.StatusOK, "Webhook received but with a processing error.", nil)
		return
	}

	if payload.Type != "TRANSACTION_SUCCEEDED" || payload.Data.Transaction == nil {
		SuccessResponse(c, http.StatusOK, "Webhook received.", nil)
		return
	}

	tx := payload.Data.Transaction
	_, err := h.ledgerLogic.ProcessDeposit(logic.DepositPayload{
		ExternalID: tx.ID,
		Amount:     tx.Amount,
		Clabe:      tx.Destination.AccountNumber,
		Raw: model.Metas{
			"id":     tx.ID,
			"amount": tx.Amount.String(),
			"clabe":  tx.Destination.AccountNumber,
		},
	})
	if err != nil {
		logger.Error("Failed to process Juno deposit %s: %v", tx.ID, err)
		SuccessResponse(c, http.StatusOK, "Webhook received but with a processing error.", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Webhook received.", nil)
}

// CreateMockDeposit 触发一笔测试入金并立即入账
// 只用于测试环境联调，生产环境入金走 HandleJunoWebhook
func (h *WebhookHandler) CreateMockDeposit(c *gin.Context) {
	var req gateway.MockDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}
	if req.Amount == "" || req.ReceiverClabe == "" {
		ErrorResponse(c, http.StatusBadRequest, "金额和收款 CLABE 不能为空")
		return
	}

	result, err := h.rail.CreateMockDeposit(c.Request.Context(), req)
	if err != nil {
		LogicErrorResponse(c, fmt.Errorf("%w: %v", logic.ErrExternalRail, err))
		return
	}

	externalID := result.TrackingCode
	if externalID == "" {
		externalID = fmt.Sprintf("mock_%d", time.Now().UnixMilli())
	}
	amount, err := decimal.NewFromString(result.Amount)
	if err != nil {
		amount, _ = decimal.NewFromString(req.Amount)
	}

	transaction, err := h.ledgerLogic.ProcessDeposit(logic.DepositPayload{
		ExternalID: externalID,
		Amount:     amount,
		Clabe:      req.ReceiverClabe,
		Raw:        model.Metas(result.Payload),
	})
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "测试入金成功", gin.H{"transaction": transaction})
}
