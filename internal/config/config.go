package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	Port             string
	TelegramBotToken string
	JWTSecret        string
	DatabaseURL      string
	ClientURL        string // адрес витрины, куда возвращаем пользователя после оплаты
	DatabaseConfig   DatabaseConfig
	MongoConfig      MongoConfig
	CloudinaryConfig CloudinaryConfig
	VNPayConfig      VNPayConfig
	AppEnv           string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// MongoConfig содержит конфигурацию MongoDB (уведомления и история статусов)
type MongoConfig struct {
	URI      string
	Database string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// VNPayConfig содержит реквизиты платёжного шлюза VNPay
type VNPayConfig struct {
	TmnCode       string
	HashSecret    string
	PayURL        string
	ReturnURL     string
	ExpireMinutes int
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	return cfg
}

// FromEnv собирает конфигурацию из переменных окружения без проверки
func FromEnv() *Config {
	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "thumua_user"),
		Password: getEnv("PGPASSWORD", "thumua_pass"),
		Name:     getEnv("PGDATABASE", "thumua"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Явно заданный DATABASE_URL важнее отдельных PG* переменных
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		ClientURL:        getEnv("CLIENT_URL", "http://localhost:3000"),
		DatabaseConfig:   dbConfig,
		MongoConfig: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "thumua"),
		},
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "thumua/products"),
		},
		VNPayConfig: VNPayConfig{
			TmnCode:       getEnv("VNP_TMN_CODE", ""),
			HashSecret:    getEnv("VNP_HASH_SECRET", ""),
			PayURL:        getEnv("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:     getEnv("VNP_RETURN_URL", "http://localhost:8080/api/payments/return"),
			ExpireMinutes: getEnvInt("VNP_EXPIRE_MINUTES", 15),
		},
		AppEnv: getEnv("APP_ENV", "production"),
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("не задан JWT_SECRET")
	}
	if c.VNPayConfig.ExpireMinutes <= 0 {
		return errors.New("VNP_EXPIRE_MINUTES должен быть положительным")
	}
	return nil
}

// IsDevelopment сообщает, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Некорректное значение %s=%q, используем %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
