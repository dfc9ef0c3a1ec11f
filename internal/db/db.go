package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thumuadocu/market-api/internal/config"
)

// Schema DDL всех таблиц сервиса, применяется командой migrate
//
//go:embed schema.sql
var Schema string

// Tables создаются Schema в этом порядке
var Tables = []string{"users", "telegram_users", "user_sessions", "products", "product_images", "exchanges", "orders"}

// Общие ошибки хранилищ
var (
	ErrNotFound         = errors.New("record not found")
	ErrNotPending       = errors.New("record is no longer pending")
	ErrDuplicatePending = errors.New("pending exchange already exists for this pair")
)

// Pool представляет пул соединений с базой данных
var Pool *pgxpool.Pool

// InitDB инициализирует соединение с базой данных
func InitDB(cfg *config.Config) error {
	var err error

	log.Printf("Подключение к базе данных %s:%s/%s\n",
		cfg.DatabaseConfig.Host, cfg.DatabaseConfig.Port, cfg.DatabaseConfig.Name)

	// Создаем контекст с таймаутом для подключения
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("ошибка при разборе URL базы данных: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("ошибка при создании пула соединений: %w", err)
	}

	if err = Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ошибка при проверке соединения: %w", err)
	}

	log.Println("✅ Успешное подключение к базе данных")
	return nil
}

// CloseDB закрывает соединение с базой данных
func CloseDB() {
	if Pool != nil {
		Pool.Close()
	}
}

// WithTimeout ограничивает запрос к базе, сохраняя отмену от родительского контекста
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
