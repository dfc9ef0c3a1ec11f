package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/middleware"
	"github.com/thumuadocu/market-api/internal/utils"
)

// Handler HTTP-обработчики уведомлений
type Handler struct {
	service    *NotificationService
	jwtService *utils.JWTService
}

// NewHandler создает обработчики уведомлений
func NewHandler(service *NotificationService, jwtService *utils.JWTService) *Handler {
	return &Handler{service: service, jwtService: jwtService}
}

// GetNotifications отдаёт ленту уведомлений
func (h *Handler) GetNotifications(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return apperr.InvalidRequest("invalid limit")
		}
	}

	items, err := h.service.List(c.Context(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"notifications": items,
		"count":         len(items),
	})
}

// GetUnreadCount отдаёт число непрочитанных
func (h *Handler) GetUnreadCount(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	n, err := h.service.UnreadCount(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unread": n})
}

// MarkRead отмечает уведомление прочитанным
func (h *Handler) MarkRead(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkRead(c.Context(), userID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// SetupRoutes настраивает маршруты уведомлений
func (h *Handler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/notifications")
	api.Use(middleware.AuthMiddleware(h.jwtService))

	api.Get("/", h.GetNotifications)
	api.Get("/unread-count", h.GetUnreadCount)
	api.Put("/:id/read", h.MarkRead)
}
