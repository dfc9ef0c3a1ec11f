package models

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeStatus статус предложения обмена
type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeAccepted  ExchangeStatus = "accepted"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCancelled ExchangeStatus = "cancelled"
)

// IsTerminal сообщает, что из статуса больше нет переходов
func (s ExchangeStatus) IsTerminal() bool {
	return s == ExchangeAccepted || s == ExchangeRejected || s == ExchangeCancelled
}

// Valid проверяет, что статус известен
func (s ExchangeStatus) Valid() bool {
	return s == ExchangePending || s.IsTerminal()
}

// Exchange представляет предложение обмена товара на товар
type Exchange struct {
	ID              uuid.UUID      `json:"id"`
	FromProductID   uuid.UUID      `json:"from_product_id"`
	ToProductID     uuid.UUID      `json:"to_product_id"`
	FromUserID      uuid.UUID      `json:"from_user_id"`
	ToUserID        uuid.UUID      `json:"to_user_id"`
	Message         string         `json:"message"`
	Status          ExchangeStatus `json:"status"`
	ResponseMessage string         `json:"response_message,omitempty"`
	RespondedAt     *time.Time     `json:"responded_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Дополнительные поля для API
	FromProduct *Product `json:"from_product,omitempty"`
	ToProduct   *Product `json:"to_product,omitempty"`
	FromUser    *User    `json:"from_user,omitempty"`
	ToUser      *User    `json:"to_user,omitempty"`
}

// InvolvesUser сообщает, является ли пользователь стороной обмена
func (e *Exchange) InvolvesUser(userID uuid.UUID) bool {
	return e.FromUserID == userID || e.ToUserID == userID
}

// ExchangeFilter фильтр списка «мои предложения»
type ExchangeFilter struct {
	Direction string         // all, incoming, outgoing
	Status    ExchangeStatus // пустой - любой
}
