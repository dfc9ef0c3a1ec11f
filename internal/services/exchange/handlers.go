package exchange

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/middleware"
	"github.com/thumuadocu/market-api/internal/models"
)

// proposeRequest тело POST /api/exchanges/propose
type proposeRequest struct {
	FromProductID string `json:"fromProductId"`
	ToProductID   string `json:"toProductId"`
	Message       string `json:"message"`
}

func (r proposeRequest) toInput() (ProposeInput, error) {
	if r.FromProductID == "" || r.ToProductID == "" {
		return ProposeInput{}, apperr.InvalidRequest("fromProductId and toProductId are required")
	}
	fromID, err := uuid.Parse(r.FromProductID)
	if err != nil {
		return ProposeInput{}, apperr.InvalidRequest("invalid fromProductId")
	}
	toID, err := uuid.Parse(r.ToProductID)
	if err != nil {
		return ProposeInput{}, apperr.InvalidRequest("invalid toProductId")
	}
	return ProposeInput{FromProductID: fromID, ToProductID: toID, Message: r.Message}, nil
}

// respondRequest тело PUT /api/exchanges/:id/respond
type respondRequest struct {
	Response models.ExchangeStatus `json:"response"` // accepted, rejected, cancelled
	Message  string                `json:"message"`
}

func (r respondRequest) validate() error {
	if !r.Response.IsTerminal() {
		return apperr.InvalidRequest("response must be one of accepted, rejected, cancelled")
	}
	return nil
}

// ProposeExchange создает новое предложение обмена
func (h *Handler) ProposeExchange(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req proposeRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperr.InvalidRequest("invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return err
	}

	exchange, err := h.service.Propose(c.Context(), userID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"exchange": exchange,
	})
}

// GetMyOffers возвращает отправленные и полученные предложения пользователя
func (h *Handler) GetMyOffers(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	filter := models.ExchangeFilter{Direction: c.Query("type", "all")}
	switch filter.Direction {
	case "all", "incoming", "outgoing":
	default:
		return apperr.InvalidRequest("type must be one of all, incoming, outgoing")
	}

	if status := c.Query("status", "all"); status != "all" {
		filter.Status = models.ExchangeStatus(status)
		if !filter.Status.Valid() {
			return apperr.InvalidRequest("unknown status filter")
		}
	}

	exchanges, err := h.service.ListMine(c.Context(), userID, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"exchanges": exchanges,
		"count":     len(exchanges),
	})
}

// GetExchange возвращает одно предложение
func (h *Handler) GetExchange(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	exchangeID, err := parseExchangeID(c)
	if err != nil {
		return err
	}

	exchange, err := h.service.Get(c.Context(), userID, exchangeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"exchange": exchange})
}

// RespondExchange принимает, отклоняет или отменяет предложение
func (h *Handler) RespondExchange(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	exchangeID, err := parseExchangeID(c)
	if err != nil {
		return err
	}

	var req respondRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperr.InvalidRequest("invalid request body")
	}
	req.Response = models.ExchangeStatus(strings.ToLower(string(req.Response)))
	if err := req.validate(); err != nil {
		return err
	}

	var exchange *models.Exchange
	if req.Response == models.ExchangeCancelled {
		exchange, err = h.service.Cancel(c.Context(), userID, exchangeID, req.Message)
	} else {
		exchange, err = h.service.Respond(c.Context(), userID, exchangeID, req.Response, req.Message)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"exchange": exchange,
	})
}

// GetAvailableProducts возвращает товары других пользователей для нового предложения
func (h *Handler) GetAvailableProducts(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	products, err := h.service.AvailableProducts(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

func parseExchangeID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.InvalidRequest("invalid exchange id")
	}
	return id, nil
}
