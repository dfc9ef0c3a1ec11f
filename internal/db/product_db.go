package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thumuadocu/market-api/internal/models"
)

const productColumns = `p.id, p.seller_id, p.title, p.description, p.price, p.category,
	p.condition, p.status, p.exchange_count, p.created_at, p.updated_at`

// ProductStore работает с таблицами products и product_images
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore создаёт хранилище товаров
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// GetProduct возвращает товар вместе с изображениями
func (s *ProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	product, err := scanProduct(s.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products p WHERE p.id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товара %s: %w", id, err)
	}

	if err := s.attachImages(ctx, []*models.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

// ListApproved возвращает одобренные товары для витрины
func (s *ProductStore) ListApproved(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	where := []string{"p.status = $1"}
	args := []interface{}{models.ProductApproved}

	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "p.category = $"+strconv.Itoa(len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where = append(where, "p.title ILIKE $"+strconv.Itoa(len(args)))
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + productColumns + ` FROM products p
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	return s.list(ctx, query, args...)
}

// ListAvailable возвращает одобренные товары всех продавцов, кроме excludeSellerID
func (s *ProductStore) ListAvailable(ctx context.Context, excludeSellerID uuid.UUID) ([]models.Product, error) {
	return s.list(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.status = $1 AND p.seller_id <> $2
		ORDER BY p.created_at DESC
	`, models.ProductApproved, excludeSellerID)
}

// IncrementExchangeCount увеличивает счётчик обменов у всех переданных товаров одним запросом
func (s *ProductStore) IncrementExchangeCount(ctx context.Context, ids ...uuid.UUID) error {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET exchange_count = exchange_count + 1, updated_at = NOW()
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("ошибка обновления счётчика обменов: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("обновлено %d товаров из %d: %w", tag.RowsAffected(), len(ids), ErrNotFound)
	}
	return nil
}

func (s *ProductStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса товаров: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения товаров: %w", err)
	}

	ptrs := make([]*models.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
	}
	if err := s.attachImages(ctx, ptrs); err != nil {
		return nil, err
	}
	return products, nil
}

// attachImages подгружает изображения для пачки товаров одним запросом
func (s *ProductStore) attachImages(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Product, len(products))
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		p.Images = []models.ProductImage{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, url, public_id, is_main, position
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY position ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("ошибка получения изображений: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.ProductImage
		var productID uuid.UUID
		if err := rows.Scan(&img.ID, &productID, &img.URL, &img.PublicID, &img.IsMain, &img.Position); err != nil {
			return fmt.Errorf("ошибка сканирования изображения: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.Condition,
		&p.Status,
		&p.ExchangeCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
