package main

import (
	"log"
	"strings"

	_ "milkeyway/api/swagger" // swagger docs
	"milkeyway/internal/config"
	"milkeyway/internal/database"
	"milkeyway/internal/geocode"
	"milkeyway/internal/handler"
	"milkeyway/internal/mailer"
	"milkeyway/internal/middleware"
	"milkeyway/internal/queue"
	"milkeyway/internal/repository"
	"milkeyway/internal/service"
	"milkeyway/internal/storage"
	"milkeyway/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Milkeyway API
// @version         1.0
// @description     Dairy marketplace backend connecting local farmers with consumers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadEnv()

	db, err := database.NewConnection(config.DatabaseDSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.EnsureSuperAdmin(db,
		config.GetEnv("ADMIN_NAME", "Platform Admin"),
		config.GetEnv("ADMIN_EMAIL", "admin@milkeyway.local"),
		config.GetEnv("ADMIN_PHONE", "0000000000"),
		config.GetEnv("ADMIN_PASSWORD", "changeme"),
	); err != nil {
		log.Printf("WARNING: Failed to ensure super admin account: %v", err)
	}

	// Redis backs OTP rate limiting; the middleware degrades to a no-op
	// when the client is nil.
	redisClient := config.NewRedisClient()

	// Background email worker draining the RabbitMQ queue.
	go queue.StartEmailConsumer()

	// WebSocket hub for profile and request lifecycle events.
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	farmerRepo := repository.NewFarmerRepository(db)
	consumerRepo := repository.NewConsumerRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	actionRepo := repository.NewAdminActionRepository(db)
	productRepo := repository.NewProductRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	mail := mailer.NewQueueMailer()
	store := storage.NewLocalStorage(
		config.GetEnv("UPLOAD_DIR", "uploads"),
		config.GetEnv("UPLOAD_BASE_URL", "/uploads"),
	)
	geocoder := geocode.NewNominatimClient(config.GetEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"))

	authService := service.NewAuthService(userRepo, verificationRepo, tokenRepo, txManager, mail)
	profileService := service.NewProfileService(userRepo, farmerRepo, consumerRepo, txManager, store, geocoder, wsHub)
	adminService := service.NewAdminService(userRepo, farmerRepo, actionRepo, settingRepo, txManager, mail, wsHub)
	discoveryService := service.NewDiscoveryService(farmerRepo, productRepo, settingRepo)
	connectionService := service.NewConnectionService(farmerRepo, consumerRepo, requestRepo, userRepo, txManager, mail, wsHub)
	productService := service.NewProductService(farmerRepo, productRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, redisClient)
	farmerHandler := handler.NewFarmerHandler(profileService, productService)
	consumerHandler := handler.NewConsumerHandler(profileService, discoveryService, productService)
	adminHandler := handler.NewAdminHandler(adminService)
	connectionHandler := handler.NewConnectionHandler(connectionService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(config.GetEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Uploaded documents are served from local disk.
	router.Static("/uploads", config.GetEnv("UPLOAD_DIR", "uploads"))

	// API Routing
	authHandler.RegisterRoutes(router.Group(""))
	farmerHandler.RegisterRoutes(router.Group(""))
	consumerHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))
	connectionHandler.RegisterRoutes(router.Group(""))

	port := config.GetEnv("PORT", "8080")
	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
