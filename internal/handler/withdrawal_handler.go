package handler

import (
	"net/http"
	"strconv"

	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalHandler struct {
	addressLogic    *logic.CryptoAddressLogic
	withdrawalLogic *logic.WithdrawalLogic
}

func NewWithdrawalHandler(db *gorm.DB, rail gateway.PaymentRail) *WithdrawalHandler {
	return &WithdrawalHandler{
		addressLogic:    logic.NewCryptoAddressLogic(db),
		withdrawalLogic: logic.NewWithdrawalLogic(db, rail),
	}
}

// CreateAddress 登记提现地址
func (h *WithdrawalHandler) CreateAddress(c *gin.Context) {
	var req struct {
		Address    string `json:"address"`
		Blockchain string `json:"blockchain"`
		Label      string `json:"label"`
		IsDefault  bool   `json:"isDefault"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	address, err := h.addressLogic.CreateAddress(currentUserID(c), logic.CreateAddressInput{
		Address:    req.Address,
		Blockchain: req.Blockchain,
		Label:      req.Label,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "地址登记成功", gin.H{"address": address})
}

// GetAddresses 获取当前用户的提现地址列表
func (h *WithdrawalHandler) GetAddresses(c *gin.Context) {
	addresses, err := h.addressLogic.ListAddresses(currentUserID(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取地址列表成功", gin.H{"addresses": addresses})
}

// DeleteAddress 删除提现地址
func (h *WithdrawalHandler) DeleteAddress(c *gin.Context) {
	addressID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.addressLogic.DeleteAddress(addressID, currentUserID(c)); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "地址删除成功", nil)
}

// CreateWithdrawal 发起链上提现
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	var req struct {
		AddressID  uint            `json:"addressId"`
		Amount     decimal.Decimal `json:"amount"`
		Blockchain string          `json:"blockchain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	withdrawal, err := h.withdrawalLogic.Withdraw(c.Request.Context(), currentUserID(c), logic.WithdrawInput{
		AddressID:  req.AddressID,
		Amount:     req.Amount,
		Blockchain: req.Blockchain,
	})
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "提现已受理", gin.H{"withdrawal": withdrawal})
}

// GetWithdrawals 分页获取当前用户的提现记录
func (h *WithdrawalHandler) GetWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	withdrawals, total, err := h.withdrawalLogic.ListWithdrawals(currentUserID(c), limit, offset)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取提现记录成功", gin.H{
		"withdrawals": withdrawals,
		"pagination": Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}
