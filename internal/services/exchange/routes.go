package exchange

import (
	"github.com/gofiber/fiber/v3"

	"github.com/thumuadocu/market-api/internal/middleware"
	"github.com/thumuadocu/market-api/internal/utils"
)

// Handler HTTP-обработчики обменов
type Handler struct {
	service    *ExchangeService
	jwtService *utils.JWTService
}

// NewHandler создает обработчики поверх сервиса обменов
func NewHandler(service *ExchangeService, jwtService *utils.JWTService) *Handler {
	return &Handler{service: service, jwtService: jwtService}
}

// SetupRoutes настраивает маршруты для API обменов
func (h *Handler) SetupRoutes(app *fiber.App) {
	// Группа для API обменов
	api := app.Group("/api/exchanges")

	// Все маршруты требуют авторизации
	api.Use(middleware.AuthMiddleware(h.jwtService))

	api.Post("/propose", h.ProposeExchange)
	api.Get("/my-offers", h.GetMyOffers)
	api.Get("/available-products", h.GetAvailableProducts)
	api.Get("/:id", h.GetExchange)
	api.Put("/:id/respond", h.RespondExchange)
}
