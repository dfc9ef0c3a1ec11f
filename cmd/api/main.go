package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/config"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/services/auth"
	"github.com/thumuadocu/market-api/internal/services/cloudinary"
	"github.com/thumuadocu/market-api/internal/services/exchange"
	"github.com/thumuadocu/market-api/internal/services/notification"
	"github.com/thumuadocu/market-api/internal/services/payment"
	"github.com/thumuadocu/market-api/internal/services/product"
	"github.com/thumuadocu/market-api/internal/utils"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	mongoClient, err := db.ConnectMongo(context.Background(), cfg.MongoConfig)
	if err != nil {
		log.Fatalf("❌ Ошибка при подключении к MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Ошибка отключения от MongoDB: %v", err)
		}
	}()

	logStore := db.NewLogStore(mongoClient, cfg.MongoConfig.Database)
	if err := logStore.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️ Не удалось создать индексы уведомлений: %v", err)
	}

	// Хранилища
	users := db.NewUserStore(db.Pool)
	products := db.NewProductStore(db.Pool)
	exchanges := db.NewExchangeStore(db.Pool)
	orders := db.NewOrderStore(db.Pool)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Thu Mua Do Cu API",
		ErrorHandler: apperr.ErrorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	jwtService := utils.NewJWTService(cfg.JWTSecret)

	cloudinaryService, err := cloudinary.NewCloudinaryService(cfg.CloudinaryConfig, jwtService)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	authService := auth.NewAuthService(users, cfg.TelegramBotToken, jwtService)
	productService := product.NewProductService(products, users)
	exchangeService := exchange.NewExchangeService(products, exchanges, users, logStore)
	notificationService := notification.NewNotificationService(logStore)
	paymentService := payment.NewPaymentService(orders, payment.NewSigner(cfg.VNPayConfig), logStore, cfg.ClientURL)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)
	product.NewHandler(productService).SetupRoutes(app)
	exchange.NewHandler(exchangeService, jwtService).SetupRoutes(app)
	notification.NewHandler(notificationService, jwtService).SetupRoutes(app)
	payment.NewHandler(paymentService, jwtService).SetupRoutes(app)

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Запускаем сервер
	log.Printf("✅ Thu Mua Do Cu API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
