package handler

import (
	"net/http"
	"strconv"

	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TransactionHandler struct {
	ledgerLogic *logic.LedgerLogic
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{
		ledgerLogic: logic.NewLedgerLogic(db),
	}
}

// GetBalance 获取当前用户余额
func (h *TransactionHandler) GetBalance(c *gin.Context) {
	balance, err := h.ledgerLogic.GetBalance(currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取余额成功", gin.H{"balance": balance})
}

// GetHistory 分页获取当前用户的流水记录
func (h *TransactionHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, total, err := h.ledgerLogic.ListHistory(currentUserID(c), limit, offset)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取流水成功", gin.H{
		"transactions": transactions,
		"pagination": Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}

// GetStats 获取当前用户的资金统计
func (h *TransactionHandler) GetStats(c *gin.Context) {
	stats, err := h.ledgerLogic.GetFinancialStats(currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取统计成功", gin.H{"stats": stats})
}
