package router

import (
	"github.com/0xjesus/bachata-connect-api/internal/config"
	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, rail gateway.PaymentRail, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "bachata-connect-api",
		})
	})

	// Juno 回调不走身份中间件
	webhookHandler := handler.NewWebhookHandler(db, rail)
	r.POST("/webhooks/juno", webhookHandler.HandleJunoWebhook)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		eventHandler := handler.NewEventHandler(db)

		// 公开活动页不需要身份
		eventUpdateHandler := handler.NewEventUpdateHandler(db)
		v1.GET("/events", eventHandler.GetPublicEvents)
		v1.GET("/events/:slug", eventHandler.GetEvent)
		v1.GET("/events/:slug/updates", eventUpdateHandler.GetUpdates)

		authed := v1.Group("")
		authed.Use(handler.IdentityRequired())
		{
			// 活动相关路由
			events := authed.Group("/events")
			{
				events.POST("", eventHandler.CreateEvent)
				events.GET("/mine", eventHandler.GetMyEvents)
				events.PUT("/:id", eventHandler.UpdateEvent)
				events.POST("/:id/join", eventHandler.JoinEvent)
				events.PUT("/:id/status", eventHandler.UpdateEventStatus)
				events.POST("/:id/cancel", eventHandler.CancelEvent)
				events.POST("/:id/settle", eventHandler.SettleEvent)
				events.POST("/:id/updates", eventUpdateHandler.PostUpdate)
			}

			// 活动动态与评论路由
			updates := authed.Group("/updates")
			{
				updates.PUT("/:id", eventUpdateHandler.EditUpdate)
				updates.DELETE("/:id", eventUpdateHandler.DeleteUpdate)
				updates.POST("/:id/comments", eventUpdateHandler.AddComment)
				updates.GET("/:id/comments", eventUpdateHandler.GetComments)
			}
			authed.DELETE("/comments/:id", eventUpdateHandler.DeleteComment)

			// 流水相关路由
			transactionHandler := handler.NewTransactionHandler(db)
			transactions := authed.Group("/transactions")
			{
				transactions.GET("/balance", transactionHandler.GetBalance)
				transactions.GET("/history", transactionHandler.GetHistory)
				transactions.GET("/stats", transactionHandler.GetStats)
			}

			// 提现相关路由
			withdrawalHandler := handler.NewWithdrawalHandler(db, rail)
			withdrawals := authed.Group("/withdrawals")
			{
				withdrawals.POST("/addresses", withdrawalHandler.CreateAddress)
				withdrawals.GET("/addresses", withdrawalHandler.GetAddresses)
				withdrawals.DELETE("/addresses/:id", withdrawalHandler.DeleteAddress)
				withdrawals.POST("", withdrawalHandler.CreateWithdrawal)
				withdrawals.GET("", withdrawalHandler.GetWithdrawals)
			}

			// 测试入金，仅联调用
			authed.POST("/deposits/mock", webhookHandler.CreateMockDeposit)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
