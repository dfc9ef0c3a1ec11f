package product

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/models"
)

// Handler HTTP-обработчики витрины
type Handler struct {
	service *ProductService
}

// NewHandler создает обработчики витрины
func NewHandler(service *ProductService) *Handler {
	return &Handler{service: service}
}

// ListProducts отдаёт страницу одобренных товаров
func (h *Handler) ListProducts(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	products, err := h.service.List(c.Context(), models.ProductFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct отдаёт карточку товара
func (h *Handler) GetProduct(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.InvalidRequest("invalid product id")
	}

	product, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"product": product})
}

func queryInt(c fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.InvalidRequest("invalid " + key)
	}
	return n, nil
}

// SetupRoutes настраивает публичные маршруты витрины
func (h *Handler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/products")

	api.Get("/", h.ListProducts)
	api.Get("/:id", h.GetProduct)
}
