package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
)

// OrderStore доступ к заказам для оплаты
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SettlePayment(ctx context.Context, id uuid.UUID, status, transactionNo string, at time.Time) error
}

// Notifier сохраняет уведомления и историю статусов
type Notifier interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	SaveHistoryStatus(ctx context.Context, h *models.HistoryStatus) error
}

// Коды ответа IPN по контракту VNPay
const (
	IPNSuccess          = "00"
	IPNOrderNotFound    = "01"
	IPNAlreadyConfirmed = "02"
	IPNInvalidAmount    = "04"
	IPNInvalidChecksum  = "97"
	IPNUnknownError     = "99"
)

// IPNResult тело ответа на IPN
type IPNResult struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// PaymentService создаёт платежи и обрабатывает ответы шлюза
type PaymentService struct {
	orders    OrderStore
	signer    *Signer
	notifier  Notifier
	clientURL string
	now       func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(orders OrderStore, signer *Signer, notifier Notifier, clientURL string) *PaymentService {
	return &PaymentService{
		orders:    orders,
		signer:    signer,
		notifier:  notifier,
		clientURL: clientURL,
		now:       time.Now,
	}
}

// CreatePaymentInput запрос ссылки на оплату
type CreatePaymentInput struct {
	OrderID     uuid.UUID
	Amount      int64
	Description string
	IPAddr      string
}

// CreatePayment проверяет заказ покупателя и возвращает ссылку на оплату
func (s *PaymentService) CreatePayment(ctx context.Context, actor uuid.UUID, in CreatePaymentInput) (string, error) {
	order, err := s.orders.GetOrder(ctx, in.OrderID)
	if errors.Is(err, db.ErrNotFound) {
		return "", apperr.NotFound("order not found")
	}
	if err != nil {
		return "", apperr.Internal("failed to load order", err)
	}

	if order.BuyerID != actor {
		return "", apperr.Forbidden("you do not own this order")
	}
	if order.PaymentStatus != models.PaymentPending {
		return "", apperr.InvalidRequest("order is already " + order.PaymentStatus)
	}
	if in.Amount != 0 && in.Amount != order.TotalAmount {
		return "", apperr.InvalidRequest("amount does not match order total")
	}

	paymentURL, err := s.signer.CreatePaymentURL(PaymentRequest{
		OrderID:     order.ID.String(),
		Amount:      order.TotalAmount,
		Description: in.Description,
		IPAddr:      in.IPAddr,
	})
	if err != nil {
		return "", apperr.InvalidRequest(err.Error())
	}
	return paymentURL, nil
}

// ReturnRedirect проверяет подпись return URL и возвращает адрес страницы результата на витрине.
// Статус заказа меняет только IPN.
func (s *PaymentService) ReturnRedirect(params map[string]string) string {
	status := "failed"
	valid, err := s.signer.VerifyParams(params)
	switch {
	case err != nil || !valid:
		status = "invalid"
	case params["vnp_ResponseCode"] == "00":
		status = "success"
	}

	q := url.Values{}
	q.Set("status", status)
	q.Set("orderId", params["vnp_TxnRef"])
	return s.clientURL + "/payment/result?" + q.Encode()
}

// HandleIPN обрабатывает уведомление шлюза об оплате
func (s *PaymentService) HandleIPN(ctx context.Context, params map[string]string) IPNResult {
	valid, err := s.signer.VerifyParams(params)
	if err != nil || !valid {
		return IPNResult{RspCode: IPNInvalidChecksum, Message: "Invalid Checksum"}
	}

	orderID, err := uuid.Parse(params["vnp_TxnRef"])
	if err != nil {
		return IPNResult{RspCode: IPNOrderNotFound, Message: "Order not found"}
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return IPNResult{RspCode: IPNOrderNotFound, Message: "Order not found"}
	}
	if err != nil {
		log.Printf("Ошибка получения заказа %s для IPN: %v", orderID, err)
		return IPNResult{RspCode: IPNUnknownError, Message: "Unknown error"}
	}

	amount, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil || amount != order.TotalAmount*100 {
		return IPNResult{RspCode: IPNInvalidAmount, Message: "Invalid amount"}
	}

	if order.PaymentStatus != models.PaymentPending {
		return IPNResult{RspCode: IPNAlreadyConfirmed, Message: "Order already confirmed"}
	}

	newStatus := models.PaymentFailed
	if params["vnp_ResponseCode"] == "00" && params["vnp_TransactionStatus"] == "00" {
		newStatus = models.PaymentPaid
	}

	err = s.orders.SettlePayment(ctx, order.ID, newStatus, params["vnp_TransactionNo"], s.now())
	if errors.Is(err, db.ErrNotPending) {
		return IPNResult{RspCode: IPNAlreadyConfirmed, Message: "Order already confirmed"}
	}
	if err != nil {
		log.Printf("Ошибка фиксации оплаты заказа %s: %v", order.ID, err)
		return IPNResult{RspCode: IPNUnknownError, Message: "Unknown error"}
	}

	s.recordSettlement(ctx, order, newStatus)
	return IPNResult{RspCode: IPNSuccess, Message: "Confirm Success"}
}

// recordSettlement уведомляет покупателя и пишет историю; ошибки только логируются
func (s *PaymentService) recordSettlement(ctx context.Context, order *models.Order, status string) {
	title, message := "Payment successful", fmt.Sprintf("Order %s has been paid", order.ID)
	if status == models.PaymentFailed {
		title, message = "Payment failed", fmt.Sprintf("Payment for order %s did not go through", order.ID)
	}

	if err := s.notifier.SaveNotification(ctx, &models.Notification{
		UserID:      order.BuyerID.String(),
		Type:        models.NotificationPayment,
		Title:       title,
		Message:     message,
		RelatedType: "order",
		RelatedID:   order.ID.String(),
		CreatedAt:   s.now(),
	}); err != nil {
		log.Printf("Не удалось сохранить уведомление для пользователя %s: %v", order.BuyerID, err)
	}

	if err := s.notifier.SaveHistoryStatus(ctx, &models.HistoryStatus{
		RelatedID:   order.ID.String(),
		RelatedType: "order",
		OldStatus:   models.PaymentPending,
		NewStatus:   status,
		ChangedBy:   "vnpay",
		Timestamp:   s.now(),
	}); err != nil {
		log.Printf("Не удалось сохранить историю статусов заказа %s: %v", order.ID, err)
	}
}
