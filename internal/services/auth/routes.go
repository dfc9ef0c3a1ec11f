package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/middleware"
)

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return apperr.InvalidRequest("invalid request")
	}

	result, err := s.LoginWithTelegram(c.Context(), payload.InitData)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// ProfileHandler отдаёт профиль владельца токена
func (s *AuthService) ProfileHandler(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	user, err := s.Profile(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": user})
}

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)
	app.Get("/api/profile", s.ProfileHandler, middleware.AuthMiddleware(s.jwtService))
}
