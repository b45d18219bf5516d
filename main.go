package main

import (
	"context"
	"log"
	"net/http"

	"kukuhub/cache"
	"kukuhub/config"
	"kukuhub/consumers"
	"kukuhub/controllers"
	"kukuhub/database"
	"kukuhub/middlewares"
	"kukuhub/mpesa"
	"kukuhub/rabbitmq"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()
	controllers.SetConfig(cfg)

	if err := database.InitDB(); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.CloseDB()

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("RabbitMQ initialization failed: %v", err)
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		log.Fatalf("Failed to setup RabbitMQ queues: %v", err)
	}
	controllers.SetRabbitMQ(rmq)

	orderCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	if err := orderCache.Ping(context.Background()); err != nil {
		log.Printf("Warning: Redis unavailable, order caching disabled: %v", err)
	} else {
		controllers.SetCache(orderCache)
	}

	transactions := mpesa.NewTransactionStore()
	controllers.SetMpesa(mpesa.NewClient(cfg), transactions)

	go consumers.StartOrderConsumer(rmq.Channel, cfg, transactions)

	r := gin.Default()

	r.Use(middlewares.PrometheusMiddleware())
	r.Use(middlewares.SessionMiddleware(cfg))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/register", controllers.Register)
		api.POST("/login", controllers.Login)
		api.GET("/check-auth", controllers.CheckAuth)
		api.POST("/logout", controllers.Logout)

		api.POST("/seller/login", controllers.SellerLogin)
		api.GET("/seller/check-auth", controllers.SellerCheckAuth)
		api.GET("/seller/messages", controllers.GetSellerMessages)
		api.PUT("/seller/messages/mark-read/:id", controllers.MarkMessageRead)
		api.GET("/seller/messages/count", controllers.GetSellerMessageCount)

		api.POST("/admin/login", controllers.AdminLogin)
		api.GET("/admin/check-auth", controllers.AdminCheckAuth)

		api.POST("/messages/send", controllers.SendMessage)

		api.POST("/orders/create", controllers.CreateOrder)
		api.GET("/orders/user", controllers.GetUserOrders)
		api.GET("/orders/admin", controllers.GetAdminOrders)
		api.GET("/orders/seller", controllers.GetSellerOrders)
		api.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
		api.PUT("/orders/update-payment", controllers.UpdateOrderPayment)

		api.POST("/mpesa/stkpush", controllers.InitiateSTKPush)
		api.GET("/mpesa/status/:id", controllers.CheckPaymentStatus)
		api.POST("/mpesa/callback", controllers.MpesaCallback)
	}

	r.POST("/dead-letter", controllers.HandleDeadLetter)

	addr := ":" + cfg.ServerPort
	log.Printf("KukuHub API starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
