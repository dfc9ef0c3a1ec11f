package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Типы уведомлений
const (
	NotificationExchangeOffer    = "exchange_offer"
	NotificationExchangeAccepted = "exchange_accepted"
	NotificationExchangeRejected = "exchange_rejected"
	NotificationPayment          = "payment"
)

// Notification уведомление пользователя, хранится в MongoDB
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Message     string             `bson:"message" json:"message"`
	RelatedType string             `bson:"related_type,omitempty" json:"related_type,omitempty"`
	RelatedID   string             `bson:"related_id,omitempty" json:"related_id,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"` // превью товара
	IsRead      bool               `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// HistoryStatus запись журнала смены статусов
type HistoryStatus struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RelatedID   string             `bson:"related_id" json:"related_id"`
	RelatedType string             `bson:"related_type" json:"related_type"` // exchange, order
	OldStatus   string             `bson:"old_status" json:"old_status"`
	NewStatus   string             `bson:"new_status" json:"new_status"`
	ChangedBy   string             `bson:"changed_by" json:"changed_by"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
