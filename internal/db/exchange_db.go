package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thumuadocu/market-api/internal/models"
)

const exchangeColumns = `id, from_product_id, to_product_id, from_user_id, to_user_id,
	message, status, response_message, responded_at, created_at, updated_at`

// pgUniqueViolation код ошибки Postgres при нарушении уникального индекса
const pgUniqueViolation = "23505"

// ExchangeStore хранит предложения обмена
type ExchangeStore struct {
	pool *pgxpool.Pool
}

// NewExchangeStore создаёт хранилище предложений обмена
func NewExchangeStore(pool *pgxpool.Pool) *ExchangeStore {
	return &ExchangeStore{pool: pool}
}

// CreateExchange сохраняет новое предложение. Уникальный частичный индекс по паре
// товаров со статусом pending превращается в ErrDuplicatePending.
func (s *ExchangeStore) CreateExchange(ctx context.Context, e *models.Exchange) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO exchanges (id, from_product_id, to_product_id, from_user_id, to_user_id, status, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, e.ID, e.FromProductID, e.ToProductID, e.FromUserID, e.ToUserID, e.Status, e.Message).
		Scan(&e.CreatedAt, &e.UpdatedAt)

	return createExchangeError(err)
}

// createExchangeError переводит нарушение exchanges_pending_pair_idx в ErrDuplicatePending
func createExchangeError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicatePending
	}
	return fmt.Errorf("ошибка создания предложения обмена: %w", err)
}

// HasPending проверяет, есть ли ожидающее предложение для пары товаров
func (s *ExchangeStore) HasPending(ctx context.Context, fromProductID, toProductID uuid.UUID) (bool, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM exchanges
			WHERE from_product_id = $1 AND to_product_id = $2 AND status = 'pending'
		)
	`, fromProductID, toProductID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существующих предложений: %w", err)
	}
	return exists, nil
}

// GetExchange возвращает предложение по ID
func (s *ExchangeStore) GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	e, err := scanExchange(s.pool.QueryRow(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения предложения обмена %s: %w", id, err)
	}
	return e, nil
}

// ListByUser возвращает входящие и исходящие предложения пользователя, новые первыми
func (s *ExchangeStore) ListByUser(ctx context.Context, userID uuid.UUID, f models.ExchangeFilter) ([]models.Exchange, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	var where string
	switch f.Direction {
	case "incoming":
		where = "to_user_id = $1"
	case "outgoing":
		where = "from_user_id = $1"
	default:
		where = "(from_user_id = $1 OR to_user_id = $1)"
	}

	args := []interface{}{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+exchangeColumns+` FROM exchanges
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса предложений обмена: %w", err)
	}
	defer rows.Close()

	exchanges := []models.Exchange{}
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования предложения: %w", err)
		}
		exchanges = append(exchanges, *e)
	}
	return exchanges, rows.Err()
}

// Transition переводит предложение из pending в статус to. Обновление условное,
// поэтому из двух одновременных ответов проходит только один; второй получает ErrNotPending.
func (s *ExchangeStore) Transition(ctx context.Context, id uuid.UUID, to models.ExchangeStatus, responseMessage string, at time.Time) (*models.Exchange, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	e, err := scanExchange(s.pool.QueryRow(ctx, `
		UPDATE exchanges
		SET status = $2, response_message = $3, responded_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+exchangeColumns, id, to, responseMessage, at))
	if err != nil {
		return nil, transitionError(err)
	}
	return e, nil
}

// transitionError: пустой RETURNING означает, что предложение уже не pending
func transitionError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotPending
	}
	return fmt.Errorf("ошибка обновления статуса предложения: %w", err)
}

func scanExchange(row pgx.Row) (*models.Exchange, error) {
	var e models.Exchange
	var respondedAt pgtype.Timestamptz

	err := row.Scan(
		&e.ID,
		&e.FromProductID,
		&e.ToProductID,
		&e.FromUserID,
		&e.ToUserID,
		&e.Message,
		&e.Status,
		&e.ResponseMessage,
		&respondedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		t := respondedAt.Time
		e.RespondedAt = &t
	}
	return &e, nil
}
