package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
	"github.com/thumuadocu/market-api/internal/utils"
)

// InitDataTTL сколько живут данные запуска Mini App
const InitDataTTL = 24 * time.Hour

// UserRegistry хранилище пользователей, которым нужен сервис авторизации
type UserRegistry interface {
	UpsertTelegramUser(ctx context.Context, p db.TelegramProfile) (*models.User, error)
	GetUserBrief(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService – структура для обработки авторизации
type AuthService struct {
	users      UserRegistry
	botToken   string
	jwtService *utils.JWTService
}

// NewAuthService – конструктор AuthService
func NewAuthService(users UserRegistry, botToken string, jwtService *utils.JWTService) *AuthService {
	return &AuthService{
		users:      users,
		botToken:   botToken,
		jwtService: jwtService,
	}
}

// LoginResult токен и профиль вошедшего пользователя
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// LoginWithTelegram проверяет initData, заводит пользователя и выдаёт JWT
func (s *AuthService) LoginWithTelegram(ctx context.Context, rawInitData string) (*LoginResult, error) {
	if rawInitData == "" {
		return nil, apperr.InvalidRequest("init_data is required")
	}

	if err := initdata.Validate(rawInitData, s.botToken, InitDataTTL); err != nil {
		return nil, apperr.Unauthorized("invalid Telegram data", err)
	}

	data, err := initdata.Parse(rawInitData)
	if err != nil {
		return nil, apperr.InvalidRequest("failed to parse init_data")
	}
	if data.User.ID == 0 {
		return nil, apperr.InvalidRequest("init_data has no user")
	}

	user, err := s.users.UpsertTelegramUser(ctx, db.TelegramProfile{
		TelegramID:   data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		PhotoURL:     data.User.PhotoURL,
		IsPremium:    data.User.IsPremium,
		LanguageCode: data.User.LanguageCode,
	})
	if err != nil {
		return nil, apperr.Internal("failed to save user", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, apperr.Internal("failed to generate JWT", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Profile возвращает профиль текущего пользователя
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserBrief(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load profile", err)
	}
	return user, nil
}
