package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"backoffice/internal/config"
	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/services"
	"backoffice/internal/util"
	"backoffice/internal/warehouse"
	"backoffice/pkg/cache"
	"backoffice/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()
	logger.Info("starting backoffice service", zap.String("env", cfg.Env))

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional: order events are best-effort) ---
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Redis (optional: only used as a rule cache) ---
	var cacheClient *cache.Client
	cacheClient, err = cache.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, rule caching disabled", zap.Error(err))
		cacheClient = nil
	} else {
		defer cacheClient.Close()
	}

	// --- Warehouse rule source ---
	ruleSource := warehouse.NewBCPSource(warehouse.Config{
		Container: cfg.Warehouse.Container,
		BCPPath:   cfg.Warehouse.BCPPath,
		Server:    cfg.Warehouse.Server,
		User:      cfg.Warehouse.User,
		Password:  cfg.Warehouse.Password,
		Database:  cfg.Warehouse.Database,
		TempDir:   cfg.Warehouse.TempDir,
	}, logger)

	// --- Repositories ---
	clientRepo := repositories.NewGORMClientRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	clientService := services.NewClientService(clientRepo)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productService, mqClient)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	recommendationService := services.NewRecommendationService(
		productService, ruleSource, cacheClient,
		time.Duration(cfg.Warehouse.CacheTTL)*time.Second)

	// --- Handlers ---
	clientHandler := handlers.NewClientHandler(clientService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(authService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.Metrics())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	clientHandler.RegisterRoutes(protectedRoutes)
	productHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)
	recommendationHandler.RegisterRoutes(protectedRoutes)

	// --- Order event consumer ---
	// Logs order lifecycle events; downstream processing (inventory sync,
	// notifications) hangs off this queue.
	if mqClient != nil {
		messageHandler := func(msg amqp.Delivery) error {
			logger.Info("received order event",
				zap.String("routing_key", msg.RoutingKey),
				zap.ByteString("body", msg.Body))
			return nil
		}
		if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
			logger.Warn("failed to start order event consumer", zap.Error(consumerErr))
		}
	}

	// --- Start HTTP server ---
	logger.Info("starting HTTP server", zap.String("port", cfg.AppPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
