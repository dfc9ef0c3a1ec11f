package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/middleware"
)

// UploadParamsHandler отдаёт подписанные параметры загрузки
func (s *CloudinaryService) UploadParamsHandler(c fiber.Ctx) error {
	params, err := s.GenerateUploadParams()
	if err != nil {
		return apperr.Internal("failed to sign upload params", err)
	}
	return c.JSON(params)
}

// SetupRoutes настраивает маршруты загрузки изображений
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	// В Fiber v3 middleware передаются после обработчика
	app.Get("/api/upload/params", s.UploadParamsHandler, middleware.AuthMiddleware(s.jwtService))
}
