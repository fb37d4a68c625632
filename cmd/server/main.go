package main

import (
	"log"

	"github.com/0xjesus/bachata-connect-api/internal/config"
	"github.com/0xjesus/bachata-connect-api/internal/database"
	"github.com/0xjesus/bachata-connect-api/internal/gateway"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/0xjesus/bachata-connect-api/internal/router"
	"github.com/0xjesus/bachata-connect-api/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付通道客户端
	rail := gateway.NewJunoClient(cfg.Juno)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, rail, cfg)

	// 启动定时任务
	manager := task.Start(db, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
