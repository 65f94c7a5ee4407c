package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/database"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub000/internal/notify"
	"github.com/jaylenmareko/topic-funding-sub000/internal/payment"
	"github.com/jaylenmareko/topic-funding-sub000/internal/router"
	"github.com/jaylenmareko/topic-funding-sub000/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	initLogger(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付网关客户端
	gateway := payment.NewHTTPGateway(cfg.Payment)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, gateway, cfg)

	// 启动通知派发器
	dispatcher, err := notify.NewDispatcher(db, notify.LogSender{}, cfg.Notify)
	if err != nil {
		logger.Fatal("Failed to create notification dispatcher: %v", err)
	}
	dispatcher.Start()
	defer dispatcher.Stop()

	// 启动定时任务
	manager := task.Start(db, gateway, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// initLogger 按配置初始化全局日志器
func initLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.Level)

	var l *logger.Logger
	var err error
	if cfg.Output == "file" {
		l, err = logger.NewWithFileRotation(level, cfg.File)
	} else {
		l, err = logger.New(level)
	}
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
}
