package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// IdentityRequired 从 X-User-ID 请求头解析调用者身份
// 网关层已完成认证，这里只负责取出用户ID
func IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			ErrorResponse(c, http.StatusUnauthorized, "缺少用户身份")
			c.Abort()
			return
		}

		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || userID == 0 {
			ErrorResponse(c, http.StatusUnauthorized, "无效的用户身份")
			c.Abort()
			return
		}

		c.Set(userIDKey, uint(userID))
		c.Next()
	}
}

// currentUserID 取出中间件写入的用户ID
func currentUserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}
