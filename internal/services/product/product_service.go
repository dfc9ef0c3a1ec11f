package product

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
)

// Ограничения пагинации витрины
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Catalog чтение товаров
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListApproved(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}

// UserDirectory краткие профили продавцов
type UserDirectory interface {
	GetUserBrief(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ProductService представляет сервис витрины товаров
type ProductService struct {
	catalog Catalog
	users   UserDirectory
}

// NewProductService создает новый экземпляр ProductService
func NewProductService(catalog Catalog, users UserDirectory) *ProductService {
	return &ProductService{catalog: catalog, users: users}
}

// List возвращает одобренные товары, новые сначала
func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	products, err := s.catalog.ListApproved(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to list products", err)
	}
	return products, nil
}

// Get возвращает одобренный товар вместе с продавцом
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load product", err)
	}
	// Товары на модерации и отклонённые на витрине не показываются
	if product.Status != models.ProductApproved && product.Status != models.ProductSold {
		return nil, apperr.NotFound("product not found")
	}

	seller, err := s.users.GetUserBrief(ctx, product.SellerID)
	if err != nil {
		log.Printf("Не удалось получить продавца %s для товара %s: %v", product.SellerID, product.ID, err)
	} else {
		product.Seller = seller
	}

	return product, nil
}
