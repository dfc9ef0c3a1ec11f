package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы модерации товара
const (
	ProductPending  = "pending"
	ProductApproved = "approved"
	ProductRejected = "rejected"
	ProductSold     = "sold"
)

// Product представляет товар на витрине
type Product struct {
	ID            uuid.UUID      `json:"id"`
	SellerID      uuid.UUID      `json:"seller_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Price         int64          `json:"price"` // в донгах
	Category      string         `json:"category"`
	Condition     string         `json:"condition"`
	Status        string         `json:"status"`
	ExchangeCount int            `json:"exchange_count"`
	Images        []ProductImage `json:"images"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Дополнительные поля для API
	Seller *User `json:"seller,omitempty"`
}

// ProductImage представляет изображение товара
type ProductImage struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	PublicID string    `json:"public_id,omitempty"`
	IsMain   bool      `json:"is_main"`
	Position int       `json:"position"`
}

// MainImageURL возвращает URL основного изображения или первого по порядку
func (p *Product) MainImageURL() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// ProductFilter параметры публичного списка товаров
type ProductFilter struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}
