package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub000/internal/authz"
	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/handler"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logic"
	"github.com/jaylenmareko/topic-funding-sub000/internal/payment"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, gateway payment.Gateway, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "topic-funding-service",
		})
	})

	ledgerLogic := logic.NewLedgerLogic(db, cfg)
	lifecycleLogic := logic.NewLifecycleLogic(db, cfg, gateway, authz.CreatorPolicy{})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 支付网关回调
		webhookHandler := handler.NewWebhookHandler(ledgerLogic)
		v1.POST("/payments/webhook", webhookHandler.HandlePaymentCompleted)

		// 话题相关路由
		topicHandler := handler.NewTopicHandler(db)
		creatorHandler := handler.NewCreatorActionHandler(lifecycleLogic)
		topics := v1.Group("/topics")
		{
			topics.GET("", topicHandler.GetTopics)
			topics.GET("/:id", topicHandler.GetTopic)
			topics.GET("/:id/stats", topicHandler.GetTopicStats)
			topics.GET("/:id/contributions", topicHandler.GetTopicContributions)
			topics.GET("/:id/refunds", topicHandler.GetTopicRefunds)
			topics.GET("/:id/refunds/stats", topicHandler.GetRefundStats)

			// 创作者操作
			topics.POST("/:id/content", creatorHandler.DeliverContent)
			topics.POST("/:id/hold", creatorHandler.Hold)
			topics.POST("/:id/resume", creatorHandler.Resume)
			topics.DELETE("/:id", creatorHandler.Decline)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
