package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/utils"
)

const localUserID = "userID"

// AuthMiddleware пропускает запрос дальше только с действующим Bearer-токеном.
// В Fiber v3 его передают после обработчика: app.Get(path, handler, AuthMiddleware(...)).
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized("missing authorization header", nil)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || strings.Contains(token, " ") {
			return apperr.Unauthorized("invalid authorization header format", nil)
		}

		subject, err := jwtService.ExtractUserID(token)
		if err != nil {
			return apperr.Unauthorized("invalid or expired token", err)
		}
		userID, err := uuid.Parse(subject)
		if err != nil {
			return apperr.Unauthorized("invalid user ID", err)
		}

		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// CurrentUserID возвращает пользователя, которого положил AuthMiddleware
func CurrentUserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals(localUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperr.Unauthorized("user is not authorized", nil)
	}
	return userID, nil
}
