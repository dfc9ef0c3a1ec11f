package payment

import (
	"github.com/gofiber/fiber/v3"

	"github.com/thumuadocu/market-api/internal/middleware"
	"github.com/thumuadocu/market-api/internal/utils"
)

// Handler HTTP-обработчики оплаты
type Handler struct {
	service    *PaymentService
	jwtService *utils.JWTService
}

// NewHandler создает обработчики оплаты
func NewHandler(service *PaymentService, jwtService *utils.JWTService) *Handler {
	return &Handler{service: service, jwtService: jwtService}
}

// SetupRoutes настраивает маршруты оплаты
func (h *Handler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/payments")

	// Колбэки шлюза приходят без токена, их защищает подпись
	api.Get("/return", h.PaymentReturn)
	api.Get("/ipn", h.PaymentIPN)
	api.Post("/ipn", h.PaymentIPN)

	api.Post("/create", h.CreatePayment, middleware.AuthMiddleware(h.jwtService))
}
