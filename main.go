package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"backend/internal/catalog"
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/inventory"
	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/orders"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		log.Printf("admin index warning: %v", err)
	}

	watcher := catalog.NewWatcher(db)
	if err := watcher.Load(context.Background()); err != nil {
		log.Fatal("catalog snapshot:", err)
	}
	go func() {
		if err := watcher.Run(context.Background()); err != nil {
			log.Println("[CATALOG] [ERROR] change stream closed:", err)
		}
	}()

	dispatcher := notify.NewDispatcher(config.AppEnv.NotifyPhone)
	if !dispatcher.Configured() {
		log.Println("[NOTIFY] [WARN] NOTIFY_PHONE not set; order submission will fail")
	}

	ledger := inventory.NewLedger(db)
	orderService := orders.NewService(db, ledger, dispatcher, orders.Config{
		EtaBaseMinutes:   config.AppEnv.EtaBaseMinutes,
		EtaBusyMinutes:   config.AppEnv.EtaBusyMinutes,
		EtaBusyThreshold: config.AppEnv.EtaBusyThreshold,
		TxTimeout:        config.AppEnv.OrderTxTimeout,
	})

	sessions := handlers.NewCartSessions()

	r := gin.Default()

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))
	r.GET("/categories", handlers.GetCategories(db))

	r.POST("/carts", handlers.CreateCart(sessions))
	r.GET("/carts/:id", handlers.GetCart(sessions))
	r.POST("/carts/:id/lines", handlers.AddCartLine(sessions, watcher))
	r.POST("/carts/:id/lines/:key/increase", handlers.IncreaseCartLine(sessions, watcher))
	r.POST("/carts/:id/lines/:key/decrease", handlers.DecreaseCartLine(sessions))
	r.DELETE("/carts/:id/lines/:key", handlers.RemoveCartLine(sessions))
	r.DELETE("/carts/:id", handlers.ClearCart(sessions))
	r.POST("/carts/:id/checkout", handlers.CheckoutCart(sessions, orderService, dispatcher))

	r.POST("/orders", handlers.CreateOrder(orderService, dispatcher))

	r.POST("/admin/login", handlers.AdminLogin(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/orders", handlers.GetOrders(db))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orderService))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
