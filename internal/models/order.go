package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы оплаты заказа
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Order заказ покупателя; сумма хранится в донгах
type Order struct {
	ID            uuid.UUID  `json:"id"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	TotalAmount   int64      `json:"total_amount"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	TransactionNo string     `json:"transaction_no,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
