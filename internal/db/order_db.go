package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thumuadocu/market-api/internal/models"
)

// OrderStore хранит заказы и их статус оплаты
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore создаёт хранилище заказов
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// GetOrder возвращает заказ по ID
func (s *OrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	var o models.Order
	var paidAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, `
		SELECT id, buyer_id, total_amount, payment_method, payment_status,
		       transaction_no, paid_at, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(
		&o.ID, &o.BuyerID, &o.TotalAmount, &o.PaymentMethod, &o.PaymentStatus,
		&o.TransactionNo, &paidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказа %s: %w", id, err)
	}

	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

// SettlePayment фиксирует результат оплаты, только если заказ ещё ожидает оплату.
// Повторное IPN для того же заказа получает ErrNotPending.
func (s *OrderStore) SettlePayment(ctx context.Context, id uuid.UUID, status, transactionNo string, at time.Time) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	var paidAt *time.Time
	if status == models.PaymentPaid {
		paidAt = &at
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, transaction_no = $3, paid_at = $4, updated_at = $5
		WHERE id = $1 AND payment_status = 'pending'
	`, id, status, transactionNo, paidAt, at)
	if err != nil {
		return fmt.Errorf("ошибка обновления оплаты заказа %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}
