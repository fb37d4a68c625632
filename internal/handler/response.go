package handler

import (
	"errors"
	"net/http"

	"github.com/0xjesus/bachata-connect-api/internal/logic"
	"github.com/gin-gonic/gin"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LogicErrorResponse 按业务错误类型映射 HTTP 状态码
func LogicErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, logic.ErrValidation),
		errors.Is(err, logic.ErrInvalidAmount),
		errors.Is(err, logic.ErrInvalidType):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrUserNotFound),
		errors.Is(err, logic.ErrEventNotFound),
		errors.Is(err, logic.ErrAddressNotFound),
		errors.Is(err, logic.ErrUpdateNotFound),
		errors.Is(err, logic.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrAlreadyParticipating),
		errors.Is(err, logic.ErrInvalidStateTransition),
		errors.Is(err, logic.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, logic.ErrInsufficientBalance),
		errors.Is(err, logic.ErrGoalNotMet),
		errors.Is(err, logic.ErrNotAcceptingContributions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, logic.ErrExternalRail):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
