package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thumuadocu/market-api/internal/models"
)

// TelegramProfile данные пользователя из Telegram initData
type TelegramProfile struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	IsPremium    bool
	LanguageCode string
}

// UserStore работает с таблицами users и telegram_users
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore создаёт хранилище пользователей
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// UpsertTelegramUser создает пользователя через Telegram или обновляет существующего
// и записывает новую сессию входа
func (s *UserStore) UpsertTelegramUser(ctx context.Context, p TelegramProfile) (*models.User, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM telegram_users WHERE telegram_id = $1
	`, p.TelegramID).Scan(&userID)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, username, avatar_url, last_login_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id
		`, p.FirstName, p.LastName, p.Username, p.PhotoURL).Scan(&userID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, is_premium, language_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, userID, p.TelegramID, p.Username, p.FirstName, p.LastName, p.PhotoURL, p.IsPremium, p.LanguageCode)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
				is_premium = $5, language_code = $6, updated_at = CURRENT_TIMESTAMP
			WHERE telegram_id = $7
		`, p.Username, p.FirstName, p.LastName, p.PhotoURL, p.IsPremium, p.LanguageCode, p.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO user_sessions (user_id, login_time) VALUES ($1, CURRENT_TIMESTAMP)
	`, userID); err != nil {
		return nil, fmt.Errorf("ошибка при создании сессии пользователя: %w", err)
	}

	user, err := scanUser(tx.QueryRow(ctx, userBriefQuery, userID))
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, nil
}

// GetUserBrief получает краткую информацию о пользователе
func (s *UserStore) GetUserBrief(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, userBriefQuery, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя %s: %w", userID, err)
	}
	return user, nil
}

const userBriefQuery = `
	SELECT id, username, first_name, last_name, avatar_url
	FROM users WHERE id = $1
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var username, firstName, lastName, avatarURL pgtype.Text

	if err := row.Scan(&user.ID, &username, &firstName, &lastName, &avatarURL); err != nil {
		return nil, err
	}

	// Преобразуем nullable поля
	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.AvatarURL = avatarURL.String

	return &user, nil
}
