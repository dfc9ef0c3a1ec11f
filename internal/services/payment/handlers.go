package payment

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/middleware"
)

// createPaymentRequest тело POST /api/payments/create
type createPaymentRequest struct {
	OrderID          string `json:"orderId"`
	Amount           int64  `json:"amount"`
	OrderDescription string `json:"orderDescription"`
}

// CreatePayment возвращает ссылку на оплату заказа через VNPay
func (h *Handler) CreatePayment(c fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req createPaymentRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperr.InvalidRequest("invalid request body")
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return apperr.InvalidRequest("invalid orderId")
	}
	if req.Amount < 0 {
		return apperr.InvalidRequest("amount must not be negative")
	}

	paymentURL, err := h.service.CreatePayment(c.Context(), userID, CreatePaymentInput{
		OrderID:     orderID,
		Amount:      req.Amount,
		Description: req.OrderDescription,
		IPAddr:      c.IP(),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"paymentUrl": paymentURL})
}

// PaymentReturn перенаправляет покупателя на страницу результата оплаты
func (h *Handler) PaymentReturn(c fiber.Ctx) error {
	return c.Redirect().To(h.service.ReturnRedirect(c.Queries()))
}

// PaymentIPN принимает уведомление VNPay; шлюз ждёт HTTP 200 с кодом в теле
func (h *Handler) PaymentIPN(c fiber.Ctx) error {
	params := c.Queries()
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})

	return c.JSON(h.service.HandleIPN(c.Context(), params))
}
